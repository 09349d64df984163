// Package rules loads rule documents into a [RuleSet].
//
// A rule document is YAML with up to three keys:
//
//	filters:
//	  - id: ">=//30"
//	  - name: "example filter project"
//	  - atleast_languages:
//	      - Python: ">=//50.0"
//	attributes:
//	  - id
//	  - name
//	match:
//	  - project.visibility != "private"
//
// Each entry of `filters` is a single-key mapping. The reserved keys
// `atleast_languages`, `atmost_languages`, `any_languages` and
// `explicit_languages` hold a list of single-key `{language: predicate}`
// mappings, matched with [langset.Match]. Any other key names a project
// attribute whose value must satisfy the predicate (see [predicate.Parse]).
//
// `attributes` lists the attributes kept in the output. `match` lists CEL
// expressions over the `project` variable (see [expr]).
//
// Every rule must be satisfied for a project to match.
package rules
