package report

import "html/template"

// htmlReportTemplate is the render engine for the html report.
var htmlReportTemplate = template.Must(template.New("htmlReport").Parse(htmlReport))

// htmlReport is the template contents for the html report.
var htmlReport = "" +
	`<!DOCTYPE html>
<html lang="en">

<head>
    <meta charset="utf-8">
    <title>Patch Coverage</title>
    <style type="text/css">
        .src-snippet {
            margin-top: 2em;
        }

        .src-name {
            font-weight: bold;
        }

        .snippets {
            border-top: 1px solid #bdbdbd;
            border-bottom: 1px solid #bdbdbd;
        }

        a {
            text-decoration: none;
        }
        a:hover {
            text-decoration: underline;
        }
    </style>
</head>

<body>
    <h1>Patch Coverage</h1>

    <ul>
        <li><b>Coverage</b>: {{ .CoveragePercent }}% (threshold {{ .Threshold }}%)</li>
        <li><b>Changed lines</b>: {{ .TotalChangedLines }}</li>
        <li><b>Relevant lines</b>: {{ .RelevantLines }}</li>
        <li><b>Covered lines</b>: {{ .CoveredLines }}</li>
        <li><b>Verdict</b>: {{ if .Passed }}passed{{ else }}failed{{ end }}</li>
    </ul>

    {{ if .Files }}
        <table border="1">
            <thead>
                <tr>
                    <th>Source File</th>
                    <th>Skipped</th>
                    <th>Changed Lines</th>
                    <th>Missed Lines</th>
                    <th>Coverage (%)</th>
                </tr>
            </thead>
            <tbody>
                {{ range .Files }}
                <tr>
                    <td><a href="#{{ .Path }}">{{ .Path }}</a></td>
                    <td>{{ if .Skipped }}{{ .SkipReason }}{{ else }}no{{ end }}</td>
                    <td>{{ .ChangedLines }}</td>
                    <td>{{ .MissedLines }}</td>
                    <td>{{ .CoveragePercent }}</td>
                </tr>
                {{ end }}
            </tbody>
        </table>
    {{ else }}
        <p>No files with coverage information in this changeset.</p>
    {{ end }}

    {{ range .Sections }}
        <div class="src-snippet">
            <div class="src-name" id="{{ .Path }}">{{ .Path }}</div>
            <div class="snippets">
                {{ range .Snippets }}
                {{ . }}
                {{ end }}
                {{ if .Spans }}
                <ul>
                {{ range .Spans }}
                    <li>{{ . }}</li>
                {{ end }}
                </ul>
                {{ end }}
            </div>
        </div>
    {{ end }}

</body>

</html>
`
