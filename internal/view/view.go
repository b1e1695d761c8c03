// Package view renders the HTML pages served to the browser. Pure
// formatting; no business logic.
package view

import (
	"bytes"
	"html/template"

	"imgbed/internal/model"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "anon_index"}}<!doctype html>
<html>
<head>
  <title>Image Upload</title>
</head>
<body>
  <h1>Upload images</h1>
  <form action="/upload" method="post" enctype="multipart/form-data">
    <input type="file" name="files[]" multiple>
    <input type="submit" value="Upload">
  </form>
</body>
</html>
{{end}}

{{define "index"}}<!doctype html>
<html>
<head>
  <title>Image Upload</title>
</head>
<body>
  <h1>Upload images</h1>
  <form action="/upload" method="post" enctype="multipart/form-data">
    <label for="files">Choose files:</label>
    <input type="file" name="files[]" multiple>
    <br><br>
    <label for="image_links">Or paste image URLs (one per line):</label>
    <br>
    <textarea name="image_links" rows="10" cols="50"></textarea>
    <br><br>
    <input type="submit" value="Upload">
  </form>
  <p><a href="/logout">Log out</a></p>
</body>
</html>
{{end}}

{{define "results"}}<!doctype html>
<html>
<head>
  <title>Uploaded</title>
</head>
<body>
  <h1>Images uploaded</h1>
  <ul>
  {{range .Results}}
    <li><a href="{{.URL}}" target="_blank">{{.URL}}</a></li>
  {{end}}
  </ul>
  <p>HTML image links:</p>
  <textarea id="htmlLinks" rows="10" cols="100" readonly>{{range .Results}}<img src="{{.URL}}" alt="{{.DisplayName}}" />{{end}}</textarea>
  <br>
  <button onclick="copyLinks()">Copy HTML links</button>
  <script>
  function copyLinks() {
    const textarea = document.getElementById('htmlLinks');
    textarea.select();
    document.execCommand('copy');
  }
  </script>
  <p><a href="/">Back</a></p>
</body>
</html>
{{end}}

{{define "login"}}<!doctype html>
<html>
<head>
  <title>Log in</title>
</head>
<body>
  <h1>Log in</h1>
  <form method="post">
    <label for="username">Username:</label>
    <input type="text" name="username">
    <br>
    <label for="password">Password:</label>
    <input type="password" name="password">
    <br><br>
    <input type="submit" value="Log in">
  </form>
  <p><a href="/register">Register</a></p>
</body>
</html>
{{end}}

{{define "register"}}<!doctype html>
<html>
<head>
  <title>Register</title>
</head>
<body>
  <h1>Register</h1>
  <form method="post">
    <label for="username">Username:</label>
    <input type="text" name="username">
    <br>
    <label for="password">Password:</label>
    <input type="password" name="password">
    <br><br>
    <input type="submit" value="Register">
  </form>
  <p><a href="/login">Log in</a></p>
</body>
</html>
{{end}}
`))

type resultsData struct {
	Results []model.UploadResult
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// AnonIndex renders the upload form of the anonymous variant (files only).
func AnonIndex() (string, error) { return render("anon_index", nil) }

// Index renders the authenticated upload form with the URL textarea.
func Index() (string, error) { return render("index", nil) }

// Results renders the link list plus the embeddable <img> markup with a
// copy-to-clipboard affordance. Callers must not invoke it with an empty
// result set; that outcome gets its own message or redirect.
func Results(results []model.UploadResult) (string, error) {
	return render("results", resultsData{Results: results})
}

// Login renders the login form.
func Login() (string, error) { return render("login", nil) }

// Register renders the registration form.
func Register() (string, error) { return render("register", nil) }
