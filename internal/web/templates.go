package web

// The UI is a handful of server-rendered pages; the templates live here
// rather than in separate files so the binary stays self-contained.

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - Ninho</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; color: #1f2430; }
header { background: #2d3446; color: #fff; padding: 0.75rem 1.5rem; display: flex; align-items: baseline; gap: 1.5rem; }
header .brand { font-weight: 700; font-size: 1.1rem; }
header a { color: #c8cede; text-decoration: none; }
header a.active { color: #fff; border-bottom: 2px solid #7aa2f7; }
main { max-width: 52rem; margin: 0 auto; padding: 1.5rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.75rem; border-bottom: 1px solid #e3e6ee; }
.muted { color: #79808f; }
.doc pre { background: #f4f5f8; padding: 0.75rem; overflow-x: auto; }
.doc blockquote { border-left: 3px solid #7aa2f7; margin-left: 0; padding-left: 0.75rem; color: #4a5161; }
footer { text-align: center; color: #a0a6b4; font-size: 0.8rem; padding: 1rem; }
input[type=search] { padding: 0.4rem; width: 24rem; max-width: 100%; }
</style>
</head>
<body>
<header>
<span class="brand">&#129754; Ninho</span>
<a href="/prds" {{if eq .Nav "prds"}}class="active"{{end}}>PRDs</a>
<a href="/prompts" {{if eq .Nav "prompts"}}class="active"{{end}}>Prompts</a>
<a href="/summaries" {{if eq .Nav "summaries"}}class="active"{{end}}>Summaries</a>
<a href="/search" {{if eq .Nav "search"}}class="active"{{end}}>Search</a>
</header>
<main>{{template "content" .}}</main>
<footer>ninho {{.Version}}</footer>
</body>
</html>{{end}}`

const prdListHTML = `{{define "content"}}
<h1>PRDs</h1>
{{if .Items}}
<table>
<tr><th>PRD</th><th>Open</th><th>Done</th><th>Questions</th><th>Decisions</th></tr>
{{range .Items}}
<tr>
<td><a href="/prds/{{.Name}}">{{.Title}}</a></td>
<td>{{.OpenRequirements}}</td>
<td>{{.CompletedRequirements}}</td>
<td>{{.OpenQuestions}}</td>
<td>{{.TotalDecisions}}</td>
</tr>
{{end}}
</table>
{{else}}
<p class="muted">No PRDs yet. Ninho creates them as you discuss features.</p>
{{end}}
{{end}}`

const documentHTML = `{{define "content"}}
<div class="doc">{{.RenderedHTML}}</div>
{{end}}`

const promptsHTML = `{{define "content"}}
<h1>Prompt Logs</h1>
{{if .Dates}}
<ul>
{{range .Dates}}<li><a href="/prompts/{{.}}">{{.}}</a></li>{{end}}
</ul>
{{else}}
<p class="muted">No prompt logs yet.</p>
{{end}}
{{end}}`

const summariesHTML = `{{define "content"}}
<h1>Summaries</h1>
<h2>Weekly</h2>
{{if .Weekly}}<ul>{{range .Weekly}}<li><a href="/summaries/weekly/{{.}}">{{.}}</a></li>{{end}}</ul>{{else}}<p class="muted">None yet.</p>{{end}}
<h2>Monthly</h2>
{{if .Monthly}}<ul>{{range .Monthly}}<li><a href="/summaries/monthly/{{.}}">{{.}}</a></li>{{end}}</ul>{{else}}<p class="muted">None yet.</p>{{end}}
<h2>Yearly</h2>
{{if .Yearly}}<ul>{{range .Yearly}}<li><a href="/summaries/yearly/{{.}}">{{.}}</a></li>{{end}}</ul>{{else}}<p class="muted">None yet.</p>{{end}}
{{end}}`

const searchHTML = `{{define "content"}}
<h1>Search</h1>
<form action="/search" method="get">
<input type="search" name="q" value="{{.Query}}" placeholder="Search PRDs, prompts, summaries, learnings" autofocus>
<button type="submit">Search</button>
</form>
{{if .HasQuery}}
{{if .Matches}}
<table>
<tr><th>Kind</th><th>Document</th><th>Line</th><th>Match</th></tr>
{{range .Matches}}
<tr><td>{{.Kind}}</td><td>{{.Ref}}</td><td>{{.Line}}</td><td>{{.Text}}</td></tr>
{{end}}
</table>
{{else}}
<p class="muted">No matches for &ldquo;{{.Query}}&rdquo;.</p>
{{end}}
{{end}}
{{end}}`

const errorHTML = `{{define "content"}}
<h1>Error {{.StatusCode}}</h1>
<p>{{.Message}}</p>
{{end}}`
