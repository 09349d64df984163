// Package expr provides CEL (Common Expression Language) functionality
// for evaluating free-form rules against project records.
//
// Expressions have access to the variable `project` (map<string, dyn>),
// holding every attribute of the record being filtered, and to helper
// functions for the language composition:
//   - languageNames(project): sorted list of the project's languages
//   - languagePercent(project, name): percentage of a language, 0.0 if unused
//
// Expressions must return a boolean value, e.g.:
//   - project.open_issues_count > 10
//   - has(project.description) && project.description.contains("simulation")
//   - "Python" in languageNames(project) && languagePercent(project, "Python") >= 50.0
//   - project.issue_statistics.counts.opened == 0
package expr
