package report

const baseCSS = `{{define "style"}}<style>
  body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; margin: 0; color: #1f2937; background: #f8fafc; }
  header { background: linear-gradient(to right, #1e3a8a, #2563eb); color: #fff; padding: 28px 40px; }
  header h1 { margin: 0 0 6px; font-weight: 400; }
  header p { margin: 0; opacity: 0.85; font-size: 13px; }
  main { padding: 24px 40px 40px; }
  h2 { font-size: 18px; border-bottom: 2px solid #e5e7eb; padding-bottom: 6px; margin-top: 32px; }
  .kpis { display: flex; gap: 16px; flex-wrap: wrap; }
  .kpi { flex: 1 1 180px; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 16px; }
  .kpi .label { font-size: 12px; text-transform: uppercase; color: #6b7280; letter-spacing: 0.04em; }
  .kpi .value { font-size: 28px; font-weight: 600; margin-top: 6px; }
  table { width: 100%; border-collapse: collapse; background: #fff; font-size: 13px; }
  th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #eef0f3; }
  th { background: #f1f5f9; font-weight: 600; }
  .sev-high, .level-High { color: #b91c1c; font-weight: 600; }
  .sev-medium, .level-Medium { color: #b45309; }
  .sev-low, .level-Low { color: #15803d; }
  .swatch { display: inline-block; width: 10px; height: 10px; border-radius: 2px; margin-right: 6px; }
  footer { color: #9ca3af; font-size: 11px; padding: 0 40px 24px; }
</style>{{end}}`

const riskHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{template "style"}}
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>Generated {{.GeneratedAt}}</p>
</header>
<main>
  <h2>Key indicators</h2>
  <div class="kpis">
    <div class="kpi"><div class="label">Overall risk score</div><div class="value">{{num .View.KPIs.OverallRiskScore}}</div></div>
    <div class="kpi"><div class="label">High-risk alerts</div><div class="value">{{.View.KPIs.HighRiskAlerts}}</div></div>
    <div class="kpi"><div class="label">Fraud detection rate</div><div class="value">{{pct .View.KPIs.FraudDetectionRate}}</div></div>
    <div class="kpi"><div class="label">Amount at risk</div><div class="value">{{money .View.KPIs.AmountAtRisk}}</div></div>
  </div>

  <h2>Risk categories</h2>
  <table>
    <thead><tr><th>Category</th><th>Score</th><th>Level</th><th>Trend</th></tr></thead>
    <tbody>
    {{range .View.Categories}}
      <tr>
        <td><span class="swatch" style="background: {{.Color}}"></span>{{.Category}}</td>
        <td>{{num .Score}}</td>
        <td class="level-{{level .Score}}">{{level .Score}}</td>
        <td>{{trendArrow .Trend}} {{.Trend}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>

  <h2>Recent alerts ({{.OpenAlerts}} open)</h2>
  <table>
    <thead><tr><th>ID</th><th>Type</th><th>Severity</th><th>Amount</th><th>Time</th><th>Status</th></tr></thead>
    <tbody>
    {{range .View.Alerts}}
      <tr>
        <td>{{.ID}}</td><td>{{.Type}}</td><td class="sev-{{.Severity}}">{{.Severity}}</td>
        <td>{{money .Amount}}</td><td>{{.Time}}</td><td>{{.Status}}</td>
      </tr>
    {{else}}
      <tr><td colspan="6">No alerts.</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Risk trend</h2>
  <table>
    <thead><tr><th>Month</th><th>Credit</th><th>Market</th><th>Operational</th><th>Compliance</th></tr></thead>
    <tbody>
    {{range .View.Trend}}
      <tr><td>{{.Month}}</td><td>{{num .Credit}}</td><td>{{num .Market}}</td><td>{{num .Operational}}</td><td>{{num .Compliance}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Alert distribution</h2>
  <table>
    <thead><tr><th>Type</th><th>Share</th></tr></thead>
    <tbody>
    {{range .View.Distribution}}
      <tr><td><span class="swatch" style="background: {{.Color}}"></span>{{.Label}}</td><td>{{pct .Value}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Risk events (likelihood / impact / velocity)</h2>
  <table>
    <thead><tr><th>Event</th><th>Likelihood</th><th>Impact</th><th>Velocity</th></tr></thead>
    <tbody>
    {{range .View.Scatter}}
      <tr><td>{{.Label}}</td><td>{{num .Likelihood}}</td><td>{{num .Impact}}</td><td>{{num .Velocity}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Recommendations</h2>
  {{if .Recommendations}}
  <table>
    <thead><tr><th>Category</th><th>Score</th><th>Action</th></tr></thead>
    <tbody>
    {{range .Recommendations}}
      <tr><td class="level-{{.Level}}">{{.Category}}</td><td>{{num .Score}}</td><td>{{.Text}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{else}}
  <p>No category requires action.</p>
  {{end}}
</main>
<footer>Values reflect the dashboard at generation time.</footer>
</body>
</html>
`

const complianceHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{template "style"}}
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>Generated {{.GeneratedAt}}</p>
</header>
<main>
  <h2>Key indicators</h2>
  <div class="kpis">
    <div class="kpi"><div class="label">Overall compliance</div><div class="value">{{pct .View.KPIs.OverallCompliance}}</div></div>
    <div class="kpi"><div class="label">Audit completion</div><div class="value">{{pct .View.KPIs.AuditCompletion}}</div></div>
    <div class="kpi"><div class="label">Finding resolution</div><div class="value">{{pct .View.KPIs.FindingResolution}}</div></div>
    <div class="kpi"><div class="label">Training completion</div><div class="value">{{pct .View.KPIs.TrainingCompletion}}</div></div>
  </div>

  <h2>Regulations</h2>
  <table>
    <thead><tr><th>Regulation</th><th>Compliance</th><th>Risk</th><th>Last audit</th></tr></thead>
    <tbody>
    {{range .View.Regulations}}
      <tr><td>{{.Regulation}}</td><td>{{pct .Compliance}}</td><td>{{pct .Risk}}</td><td>{{.LastAudit}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Compliance trend</h2>
  <table>
    <thead><tr><th>Month</th><th>Compliance</th><th>Target</th></tr></thead>
    <tbody>
    {{range .View.Trend}}
      <tr><td>{{.Month}}</td><td>{{pct .Compliance}}</td><td>{{pct .Target}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Findings by severity</h2>
  <table>
    <thead><tr><th>Severity</th><th>Findings</th></tr></thead>
    <tbody>
    {{range .View.Findings}}
      <tr><td><span class="swatch" style="background: {{.Color}}"></span>{{.Label}}</td><td>{{num .Value}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Audit plan</h2>
  <table>
    <thead><tr><th>Quarter</th><th>Completed</th><th>In progress</th><th>Planned</th></tr></thead>
    <tbody>
    {{range .View.Audits}}
      <tr><td>{{.Quarter}}</td><td>{{.Completed}}</td><td>{{.InProgress}}</td><td>{{.Planned}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Training completion</h2>
  <table>
    <thead><tr><th>Department</th><th>Completion</th></tr></thead>
    <tbody>
    {{range .View.Training}}
      <tr><td>{{.Department}}</td><td>{{pct .Score}}</td></tr>
    {{end}}
    </tbody>
  </table>
</main>
<footer>Values reflect the dashboard at generation time.</footer>
</body>
</html>
`
