package checker

const DefaultRules = `
name: Default Rules
rules:

  - id: XSS001
    title: Reflected Cross-Site Scripting (XSS)
    severity: critical
    advice: Escape output with htmlspecialchars() to prevent reflected XSS.
    when: >-
      kind in ["AST_ECHO", "AST_PRINT"] && tainted

  - id: CSRF001
    title: Form missing CSRF protection
    severity: warning
    advice: Include a CSRF token in all HTML forms.
    when: >-
      kind in ["AST_ECHO", "AST_PRINT"]
      && lower(text) contains "<form"
      && lower(text) matches "method\\s*=\\s*['\"]?post"
      && !(lower(text) contains "csrf")

  - id: RCE001
    title: Remote Code Execution via user input
    severity: critical
    advice: Avoid passing user input to execution functions.
    when: >-
      tainted && (
        kind == "AST_CALL" && name in ["system", "exec", "shell_exec", "passthru", "popen", "proc_open", "assert"]
        || kind == "AST_INCLUDE_OR_EVAL" && flags == 1
      )

  - id: LFI001
    title: File inclusion from user input
    severity: critical
    advice: Only include files from a fixed list of trusted paths.
    when: >-
      kind == "AST_INCLUDE_OR_EVAL" && flags != 1 && tainted

  - id: SQLI001
    title: Possible SQL Injection
    severity: critical
    advice: Use prepared statements or parameterized queries.
    when: >-
      kind in ["AST_CALL", "AST_METHOD_CALL", "AST_STATIC_CALL"]
      && name in ["mysql_query", "mysqli_query", "pg_query", "sqlite_query", "db_query", "query", "prepare"]
      && tainted

  - id: CRYPTO001
    title: Insecure Hash Function (MD5)
    severity: warning
    advice: Avoid using MD5. Use stronger hashes like SHA-256 or bcrypt.
    when: >-
      kind == "AST_CALL" && name == "md5"

  - id: CRYPTO002
    title: Weak Hash Function (SHA-1)
    severity: info
    advice: Prefer SHA-256 or stronger for anything security related.
    when: >-
      kind == "AST_CALL" && name == "sha1"

  - id: REDIRECT001
    title: Possible Open Redirect
    severity: critical
    advice: Ensure redirects use a whitelist of trusted URLs.
    when: >-
      kind == "AST_CALL" && name == "header"
      && len(args) > 0 && args[0].tainted
      && lower(args[0].text) matches "^\\s*location\\s*:"
`
