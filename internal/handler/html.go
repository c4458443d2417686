package handler

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>ISS Asset Tracker</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: sans-serif; margin: 0; display: flex; background: #0e1117; color: #fafafa; }
        aside { width: 260px; padding: 20px; background: #262730; min-height: 100vh; box-sizing: border-box; }
        main { flex: 1; padding: 24px 40px; }
        .metric { font-size: 2em; font-weight: bold; }
        .flash { padding: 12px; border-radius: 6px; margin-bottom: 16px; }
        .flash.error { background: #5c1e1e; }
        .flash.info { background: #1e3a5c; }
        .images { display: flex; gap: 16px; flex-wrap: wrap; }
        .images figure { margin: 0; flex: 1; min-width: 300px; }
        .images img { width: 100%; border-radius: 6px; }
        button { padding: 8px 16px; border-radius: 6px; border: 0; background: #ff4b4b; color: #fff; cursor: pointer; }
        table { border-collapse: collapse; }
        td { padding: 4px 16px 4px 0; }
    </style>
</head>
<body>
<aside>
    <h2>System Information</h2>
    <p>Model: {{.ModelName}}</p>
    <p>Current Model mAP</p>
    <div class="metric">{{.ModelMAP}}</div>
    <p>Confidence: {{printf "%.2f" .Confidence}}</p>
    {{if .ModelError}}<p>Model status: unavailable</p>{{else}}<p>Model status: ready</p>{{end}}
    <p><a href="/auth/logout">Log out</a></p>
</aside>
<main>
    <h1>ISS Asset Tracker</h1>
    <p>Upload an image from the station to detect and count critical assets.</p>

    {{if .ModelError}}<div class="flash error">The detection model could not be loaded: {{.ModelError}}</div>{{end}}
    {{if .Error}}<div class="flash error">{{.Error}}</div>{{end}}

    {{if .Results}}
    <div class="images">
        <figure>
            <img src="/session/image?kind=original&v={{.Results.Version}}" alt="Original image">
            <figcaption>Original: {{.Results.Filename}}</figcaption>
        </figure>
        <figure>
            <img src="/session/image?kind=annotated&v={{.Results.Version}}" alt="Detected assets">
            <figcaption>Detected assets at confidence {{printf "%.2f" .Results.Confidence}}</figcaption>
        </figure>
    </div>

    <h2>Detection Summary</h2>
    {{if .Results.Entries}}
    <table>
        {{range .Results.Entries}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
        {{end}}
    </table>
    {{else}}
    <div class="flash info">{{.Results.Message}}</div>
    {{end}}

    <form method="post" action="/reset">
        <button type="submit">Scan Another Image</button>
    </form>
    {{else}}
    <form method="post" action="/analyze" enctype="multipart/form-data">
        <p><input type="file" name="image" accept="image/png,image/jpeg,image/webp,image/bmp,image/tiff"></p>
        <p>
            <label for="confidence">Confidence threshold</label>
            <input type="range" id="confidence" name="confidence" min="0" max="1" step="0.05" value="{{printf "%.2f" .Confidence}}"
                   oninput="document.getElementById('confidence-value').textContent = Number(this.value).toFixed(2)">
            <span id="confidence-value">{{printf "%.2f" .Confidence}}</span>
        </p>
        <button type="submit"{{if .ModelError}} disabled{{end}}>Analyze Image</button>
    </form>
    {{end}}
</main>
</body>
</html>
`

const loginHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Login - ISS Asset Tracker</title>
</head>
<body>
    <h1>ISS Asset Tracker</h1>
    {{if .}}<p>{{.}}</p>{{end}}
    <form method="post" action="/auth/login">
        <input type="password" name="password" placeholder="Password" autofocus>
        <button type="submit">Log in</button>
    </form>
</body>
</html>
`
