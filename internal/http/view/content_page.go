package view

import (
	"bytes"
	"html/template"
)

// ContentPageData provides the dynamic fields required by the content template.
type ContentPageData struct {
	Title string
	Text  string
}

var contentPageTmpl = template.Must(template.New("content_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{if .Title}}{{.Title}}{{else}}ShredLink{{end}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
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
			width: min(720px, 92vw);
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		h1 {
			font-size: 1.3rem;
			margin: 0 0 6px;
		}
		p { color: var(--muted); margin-top: 0; }
		pre.content {
			margin: 24px 0;
			padding: 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			white-space: pre-wrap;
			word-break: break-word;
			unicode-bidi: plaintext;
			text-align: start;
			max-height: 70vh;
			overflow-y: auto;
			font-size: 0.95rem;
			line-height: 1.55;
		}
		.actions {
			display: flex;
			align-items: center;
			gap: 12px;
			margin-top: 24px;
			flex-wrap: wrap;
		}
		button.copy, a.button {
			display: inline-flex;
			align-items: center;
			justify-content: center;
			padding: 0 28px;
			height: 44px;
			border-radius: 999px;
			border: none;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			font-size: 0.95rem;
			text-decoration: none;
			cursor: pointer;
		}
		a.home { color: var(--muted); text-decoration: none; font-size: 0.9rem; }
		a.home:hover { color: var(--text); }
	</style>
</head>
<body>
	<div class="card">
		<h1>Shared content</h1>
		<p>This text was shared with you. It may not be viewable again.</p>

		<pre class="content" id="content" dir="auto">{{.Text}}</pre>

		<div class="actions">
			<button type="button" class="copy" id="copy">Copy all</button>
			<a class="home" href="/">Back home</a>
		</div>
	</div>
	<script>
		(function() {
			const btn = document.getElementById("copy");
			const text = document.getElementById("content").textContent;
			btn.addEventListener("click", () => {
				navigator.clipboard.writeText(text).then(() => {
					btn.textContent = "Copied!";
					setTimeout(() => { btn.textContent = "Copy all"; }, 2000);
				});
			});
		})();
	</script>
</body>
</html>
`))

// RenderContentPage expands the content page template with the provided data.
func RenderContentPage(data ContentPageData) (string, error) {
	if data.Title == "" {
		data.Title = "ShredLink – Content"
	}

	var buf bytes.Buffer
	if err := contentPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
