package view

import (
	"bytes"
	"html/template"
)

// ErrorPageData provides the dynamic fields required by the error template.
type ErrorPageData struct {
	Title   string
	Message string
}

var errorPageTmpl = template.Must(template.New("error_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>ShredLink</title>
	<style>
		:root {
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			width: min(460px, 92vw);
			text-align: center;
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		h1 { font-size: 1.3rem; margin: 0 0 8px; }
		p { color: var(--muted); margin: 0 0 20px; }
		a { color: var(--accent); text-decoration: none; }
		a:hover { text-decoration: underline; }
	</style>
</head>
<body>
	<div class="card">
		<h1>{{.Title}}</h1>
		<p>{{.Message}}</p>
		<a href="/">Back home</a>
	</div>
</body>
</html>
`))

// RenderErrorPage expands the error page template with the provided data.
func RenderErrorPage(data ErrorPageData) (string, error) {
	var buf bytes.Buffer
	if err := errorPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
