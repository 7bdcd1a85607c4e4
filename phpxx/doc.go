// Package phpxx implements the phpxx scripting language. Programs are made
// of:
//   - `echo expr;` and `echo -n expr;` for output.
//   - Assignments `$name = expr;` (the sigil is optional).
//   - Function declarations `function name($a, $b) { ... }`; a function
//     returns by calling `throw(value)`.
//   - `if` / `else` and `while` / `else` blocks.
//   - Arithmetic over numbers, strings and arrays with `+ - * /`, and the
//     `..array` spread prefix in call arguments.
//
// The parser flattens every function body into the single top-level
// statement list and skips it with a backpatched jump, so calling a function
// means running the same list from the function's entry point. Comments
// start with `#` or `//`.
package phpxx
