package compose

// widgetTemplate is the Go html/template for the chat widget page. The
// accent variables are injected per-owner at render time.
const widgetTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Meta.Title}}</title>
  <meta name="description" content="{{.Meta.Description}}">
  <style>
    :root {
      --accent: {{.Branding.Accent}};
      --accent-hover: {{.Branding.AccentHover}};
      --accent-shadow: {{.Branding.AccentShadow}};
    }
  </style>
  <link rel="stylesheet" href="/static/widget.css">
</head>
<body>
  <header class="widget-header">
    {{if .ShowBack}}<a class="back-button" href="javascript:history.back()">&larr;</a>{{end}}
    {{if .Branding.ShowLogo}}{{if .OwnerURL}}<a href="{{.OwnerURL}}"><img src="{{.Branding.LogoURL}}" alt="{{.Branding.OwnerName}}" class="owner-logo"></a>{{else}}<img src="{{.Branding.LogoURL}}" alt="{{.Branding.OwnerName}}" class="owner-logo">{{end}}{{end}}
    <h1 class="doc-title">{{.Title}}</h1>
    {{if .ShowPubMed}}<a class="pubmed-link" href="https://pubmed.ncbi.nlm.nih.gov/{{.PMID}}/" target="_blank" rel="noopener">PubMed</a>{{end}}
  </header>

  {{if .Multi}}
  <section class="cover-grid">
    {{range .Tiles}}
    <div class="cover-tile" data-slug="{{.Slug}}">
      <img src="{{.Cover}}" alt="{{.Title}}">
      <h3>{{.Title}}</h3>
      {{if .Subtitle}}<p class="subtitle">{{.Subtitle}}</p>{{end}}
    </div>
    {{end}}
  </section>
  {{else}}
  {{range .Tiles}}
  <section class="cover-single">
    <img src="{{.Cover}}" alt="{{.Title}}">
  </section>
  {{end}}
  {{end}}

  <section class="welcome-panel">
    <p class="welcome">Ask me anything about {{.Welcome}}.</p>
    {{if .ShowIntro}}<div class="intro">{{.Intro}}</div>{{end}}
    {{if .Keywords}}
    <div class="keyword-cloud">
      {{range .Keywords}}<span class="keyword" data-weight="{{.Weight}}">{{.Term}}</span>{{end}}
    </div>
    {{end}}
    {{if .Downloads}}
    <ul class="downloads">
      {{range .Downloads}}<li><a href="{{.URL}}">{{.Title}}</a></li>{{end}}
    </ul>
    {{end}}
  </section>

  <section class="chat" id="chat-root"
    data-selector="{{if .ShowSelector}}on{{else}}off{{end}}">
    <div class="transcript" id="transcript"></div>
    <form id="chat-form">
      <input type="text" id="chat-input" placeholder="Ask a question..." autocomplete="off">
      <button type="submit">Send</button>
    </form>
  </section>

  <script src="/static/widget.js"></script>
</body>
</html>
`

// emptyTemplate is the "document required" shell shown when no document was
// requested or none validated. Input is disabled; the notice offers slug or
// owner entry and is shown at most once per page session.
const emptyTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Document Required</title>
  <link rel="stylesheet" href="/static/widget.css">
</head>
<body>
  <header class="widget-header">
    <h1 class="doc-title">Document Required</h1>
  </header>

  {{if .ShowNotice}}
  <section class="notice" id="document-notice">
    <p>Please specify a document to chat with.</p>
    <form method="get" action="/view">
      <label>Document slug <input type="text" name="doc"></label>
      <label>or owner <input type="text" name="owner"></label>
      <button type="submit">Open</button>
    </form>
  </section>
  {{end}}

  <section class="chat chat-disabled">
    <div class="transcript"></div>
    <form>
      <input type="text" placeholder="Specify a document first" disabled>
      <button type="submit" disabled>Send</button>
    </form>
  </section>
</body>
</html>
`

// errorTemplate renders access-denial pages: not found, login required,
// permission denied and passcode entry share one layout with different copy.
const errorTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Heading}}</title>
  <link rel="stylesheet" href="/static/widget.css">
</head>
<body>
  <section class="access-modal">
    <h1>{{.Heading}}</h1>
    <p>{{.Message}}</p>
    {{if .ShowPasscodeForm}}
    <form method="post" action="/view/passcode">
      <input type="hidden" name="doc" value="{{.Doc}}">
      <label>Passcode <input type="password" name="passcode" autofocus></label>
      {{if .PasscodeIncorrect}}<p class="error">That passcode was not accepted. Try again.</p>{{end}}
      <button type="submit">Unlock</button>
    </form>
    {{end}}
    {{if .LoginURL}}<a class="button" href="{{.LoginURL}}">Sign in</a>{{end}}
    <a class="button secondary" href="/">Back to home</a>
  </section>
</body>
</html>
`
