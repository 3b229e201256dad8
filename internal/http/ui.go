package http

import (
	"bytes"
	"html/template"
	nethttp "net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"go-audit-insights/internal/dashboard"
	"go-audit-insights/internal/series"
)

var uiFuncs = template.FuncMap{
	"pct": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "%" },
	"money": func(v float64) string {
		return "$" + humanize.Commaf(v)
	},
}

var (
	compliancePage = template.Must(template.New("layout").Funcs(uiFuncs).Parse(layoutHTML + complianceHTML))
	riskPage       = template.Must(template.New("layout").Funcs(uiFuncs).Parse(layoutHTML + riskHTML))
	chatPage       = template.Must(template.New("layout").Funcs(uiFuncs).Parse(layoutHTML + chatHTML))
)

type pageData struct {
	Title  string
	Active string
	View   any
	Params series.Params
	Report series.Report
}

// pageHandler renders a dashboard page from the merged view. Unreachable series
// render their last-good or sample values.
func pageHandler(loader viewLoader, defaults viewDefaults, page string, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		params := parseViewParams(r, defaults)
		view, rep, ok := loadView(r.Context(), loader, page, params)
		if !ok {
			nethttp.NotFound(w, r)
			return
		}
		tpl, title := compliancePage, "Compliance Dashboard"
		if page == dashboard.PageRisk {
			tpl, title = riskPage, "Risk Assessment"
		}
		renderPage(w, tpl, pageData{Title: title, Active: page, View: view, Params: params, Report: rep}, logger)
	}
}

func chatPageHandler(logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		renderPage(w, chatPage, pageData{Title: "Audit Assistant", Active: "chat"}, logger)
	}
}

func renderPage(w nethttp.ResponseWriter, tpl *template.Template, data pageData, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		logger.Error("page render failed", zap.String("page", data.Active), zap.Error(err))
		nethttp.Error(w, "failed to render page", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const layoutHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}} · Audit Insights</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
  <script src="https://cdn.plot.ly/plotly-2.27.0.min.js"></script>
  <style>
    :root {
      --brand: #1e3a5f;
      --brand-2: #2c5282;
      --bg: #f5f7fa;
      --paper: #fff;
      --text: #2d3748;
      --muted: #718096;
      --line: #e2e8f0;
      --ok: #38a169;
      --warn: #d69e2e;
      --bad: #e53e3e;
    }
    * { box-sizing: border-box; }
    body { margin: 0; background: var(--bg); color: var(--text); font-family: "Segoe UI", Arial, sans-serif; font-size: 14px; }
    header { background: linear-gradient(to right, var(--brand) 0, var(--brand-2) 100%); box-shadow: 0 2px 5px rgba(0,0,0,.15); }
    .container { margin: 0 auto; padding: 0 16px; max-width: 1440px; }
    .header-inner { min-height: 64px; display: flex; align-items: center; justify-content: space-between; }
    .brand { color: #fff; font-size: 20px; font-weight: 300; }
    .brand strong { font-weight: 600; }
    nav a { color: rgba(255,255,255,.85); margin-left: 18px; text-decoration: none; font-weight: 600; }
    nav a.active, nav a:hover { color: #fff; border-bottom: 2px solid #fff; }
    main { padding: 18px 0 32px; }
    .banner { background: #fffbea; border: 1px solid #f6e05e; padding: 8px 12px; margin-bottom: 14px; font-size: 13px; }
    .kpis { display: grid; grid-template-columns: repeat(4, 1fr); gap: 12px; margin-bottom: 16px; }
    .kpi { background: var(--paper); border: 1px solid var(--line); padding: 14px; border-radius: 6px; }
    .kpi .label { color: var(--muted); font-size: 12px; text-transform: uppercase; }
    .kpi .value { font-size: 28px; font-weight: 600; }
    .grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 16px; }
    .panel { background: var(--paper); border: 1px solid var(--line); border-radius: 6px; padding: 14px; }
    .panel h2 { margin: 0 0 10px; font-size: 15px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); }
    th { background: #f7fafc; font-size: 12px; text-transform: uppercase; color: var(--muted); }
    .actions { margin-bottom: 14px; text-align: right; }
    .btn { background: var(--brand); color: #fff; padding: 7px 12px; border-radius: 4px; text-decoration: none; border: 0; cursor: pointer; }
    .up { color: var(--bad); } .down { color: var(--ok); } .stable { color: var(--muted); }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="brand"><strong>Audit</strong> Insights</div>
      <nav>
        <a href="/chat" {{if eq .Active "chat"}}class="active"{{end}}>Assistant</a>
        <a href="/compliance" {{if eq .Active "compliance"}}class="active"{{end}}>Compliance</a>
        <a href="/risk" {{if eq .Active "risk"}}class="active"{{end}}>Risk Assessment</a>
      </nav>
    </div>
  </header>
  <main class="container">
    {{if .Report.Degraded}}<div class="banner">Some series could not be refreshed and show their last known or sample values.</div>{{end}}
    {{template "content" .}}
  </main>
</body>
</html>
`

const complianceHTML = `{{define "content"}}{{with .View}}
<div class="actions"><a class="btn" href="/api/v1/reports/compliance/download?environment={{$.Params.Environment}}&amp;limit={{$.Params.Limit}}&amp;months={{$.Params.Months}}">Download report</a></div>
<div class="kpis">
  <div class="kpi"><div class="label">Overall Compliance</div><div class="value">{{pct .KPIs.OverallCompliance}}</div></div>
  <div class="kpi"><div class="label">Audit Completion</div><div class="value">{{pct .KPIs.AuditCompletion}}</div></div>
  <div class="kpi"><div class="label">Finding Resolution</div><div class="value">{{pct .KPIs.FindingResolution}}</div></div>
  <div class="kpi"><div class="label">Training Completion</div><div class="value">{{pct .KPIs.TrainingCompletion}}</div></div>
</div>
<div class="grid">
  <div class="panel"><h2>Compliance Trend</h2><canvas id="trend"></canvas></div>
  <div class="panel"><h2>Compliance by Regulation</h2><canvas id="regulations"></canvas></div>
  <div class="panel"><h2>Findings by Severity</h2><canvas id="findings"></canvas></div>
  <div class="panel"><h2>Audit Progress</h2><canvas id="audits"></canvas></div>
  <div class="panel"><h2>Training by Department</h2><canvas id="training"></canvas></div>
  <div class="panel">
    <h2>Regulations</h2>
    <table>
      <thead><tr><th>Regulation</th><th>Compliance</th><th>Risk</th><th>Last Audit</th></tr></thead>
      <tbody>
      {{range .Regulations}}<tr><td>{{.Regulation}}</td><td>{{pct .Compliance}}</td><td>{{.Risk}}</td><td>{{.LastAudit}}</td></tr>{{end}}
      </tbody>
    </table>
  </div>
</div>
<script>
  const view = {{.}};
  new Chart(document.getElementById("trend"), {
    type: "line",
    data: { labels: view.trend.map(p => p.month), datasets: [
      { label: "Compliance", data: view.trend.map(p => p.compliance), borderColor: "#2c5282" },
      { label: "Target", data: view.trend.map(p => p.target), borderColor: "#a0aec0", borderDash: [6, 4] }
    ] }
  });
  new Chart(document.getElementById("regulations"), {
    type: "bar",
    data: { labels: view.regulations.map(r => r.regulation), datasets: [
      { label: "Compliance %", data: view.regulations.map(r => r.compliance), backgroundColor: "#2c5282" },
      { label: "Risk", data: view.regulations.map(r => r.risk), backgroundColor: "#e53e3e" }
    ] }
  });
  new Chart(document.getElementById("findings"), {
    type: "pie",
    data: { labels: view.findings.map(s => s.label), datasets: [
      { data: view.findings.map(s => s.value), backgroundColor: view.findings.map(s => s.color) }
    ] }
  });
  new Chart(document.getElementById("audits"), {
    type: "bar",
    options: { scales: { x: { stacked: true }, y: { stacked: true } } },
    data: { labels: view.audits.map(a => a.quarter), datasets: [
      { label: "Completed", data: view.audits.map(a => a.completed), backgroundColor: "#38a169" },
      { label: "In Progress", data: view.audits.map(a => a.inProgress), backgroundColor: "#d69e2e" },
      { label: "Planned", data: view.audits.map(a => a.planned), backgroundColor: "#a0aec0" }
    ] }
  });
  new Chart(document.getElementById("training"), {
    type: "radar",
    data: { labels: view.training.map(t => t.department), datasets: [
      { label: "Completion %", data: view.training.map(t => t.score), borderColor: "#2c5282" }
    ] }
  });
</script>
{{end}}{{end}}`

const riskHTML = `{{define "content"}}{{with .View}}
<div class="actions"><a class="btn" href="/api/v1/reports/risk/download?environment={{$.Params.Environment}}&amp;limit={{$.Params.Limit}}&amp;months={{$.Params.Months}}">Download report</a></div>
<div class="kpis">
  <div class="kpi"><div class="label">Overall Risk Score</div><div class="value">{{.KPIs.OverallRiskScore}}</div></div>
  <div class="kpi"><div class="label">High Risk Alerts</div><div class="value">{{.KPIs.HighRiskAlerts}}</div></div>
  <div class="kpi"><div class="label">Fraud Detection Rate</div><div class="value">{{pct .KPIs.FraudDetectionRate}}</div></div>
  <div class="kpi"><div class="label">Amount at Risk</div><div class="value">{{money .KPIs.AmountAtRisk}}</div></div>
</div>
<div class="grid">
  <div class="panel">
    <h2>Risk Categories</h2>
    <table>
      <thead><tr><th>Category</th><th>Score</th><th>Trend</th></tr></thead>
      <tbody>
      {{range .Categories}}<tr><td>{{.Category}}</td><td>{{.Score}}</td><td class="{{.Trend}}">{{.Trend}}</td></tr>{{end}}
      </tbody>
    </table>
  </div>
  <div class="panel"><h2>Risk Trend</h2><canvas id="trend"></canvas></div>
  <div class="panel"><h2>Risk Events (likelihood, impact, velocity)</h2><div id="scatter" style="height:360px"></div></div>
  <div class="panel"><h2>Exposure by Category</h2><div id="exposure" style="height:360px"></div></div>
  <div class="panel"><h2>Alert Distribution</h2><canvas id="distribution"></canvas></div>
  <div class="panel">
    <h2>Recent Alerts</h2>
    <table>
      <thead><tr><th>ID</th><th>Type</th><th>Severity</th><th>Amount</th><th>Time</th><th>Status</th></tr></thead>
      <tbody>
      {{range .Alerts}}<tr><td>{{.ID}}</td><td>{{.Type}}</td><td>{{.Severity}}</td><td>{{money .Amount}}</td><td>{{.Time}}</td><td>{{.Status}}</td></tr>{{end}}
      </tbody>
    </table>
  </div>
</div>
<script>
  const view = {{.}};
  const families = [["credit", "#e53e3e"], ["market", "#d69e2e"], ["operational", "#2c5282"], ["compliance", "#38a169"]];
  new Chart(document.getElementById("trend"), {
    type: "line",
    data: { labels: view.trend.map(p => p.month), datasets: families.map(([key, color]) => (
      { label: key, data: view.trend.map(p => p[key]), borderColor: color }
    )) }
  });
  Plotly.newPlot("scatter", [{
    type: "scatter3d", mode: "markers+text",
    x: view.scatter.map(p => p.likelihood), y: view.scatter.map(p => p.impact), z: view.scatter.map(p => p.velocity),
    text: view.scatter.map(p => p.label), marker: { size: 6, color: view.scatter.map(p => p.impact), colorscale: "Reds" }
  }], { margin: { l: 0, r: 0, t: 0, b: 0 }, scene: { xaxis: { title: "Likelihood" }, yaxis: { title: "Impact" }, zaxis: { title: "Velocity" } } });
  const categories = [...new Set(view.exposure.map(p => p.category))];
  Plotly.newPlot("exposure", categories.map(cat => {
    const pts = view.exposure.filter(p => p.category === cat);
    return { type: "scatter3d", mode: "lines", name: cat, x: pts.map(p => p.month), y: pts.map(() => cat), z: pts.map(p => p.exposure) };
  }), { margin: { l: 0, r: 0, t: 0, b: 0 } });
  new Chart(document.getElementById("distribution"), {
    type: "doughnut",
    data: { labels: view.distribution.map(s => s.label), datasets: [
      { data: view.distribution.map(s => s.value), backgroundColor: view.distribution.map(s => s.color) }
    ] }
  });
</script>
{{end}}{{end}}`

const chatHTML = `{{define "content"}}
<style>
  .chat { max-width: 860px; margin: 0 auto; }
  .messages { background: var(--paper); border: 1px solid var(--line); border-radius: 6px; padding: 14px; min-height: 420px; max-height: 65vh; overflow-y: auto; }
  .msg { margin: 8px 0; padding: 10px 12px; border-radius: 8px; max-width: 80%; white-space: pre-wrap; }
  .msg.user { background: var(--brand); color: #fff; margin-left: auto; }
  .msg.assistant { background: #edf2f7; }
  .msg.error { background: #fed7d7; color: #9b2c2c; }
  .msg.loading { color: var(--muted); font-style: italic; }
  form { display: flex; gap: 8px; margin-top: 12px; }
  input[type=text] { flex: 1; padding: 9px; border: 1px solid var(--line); border-radius: 4px; }
</style>
<div class="chat">
  <div class="messages" id="messages">
    <div class="msg assistant">Hello! Ask me about journal entries, payments, trades or audit findings.</div>
  </div>
  <form id="ask">
    <input type="text" id="query" placeholder="Ask a question about your audit data" autocomplete="off" />
    <button class="btn" type="submit">Send</button>
  </form>
</div>
<script>
  const list = document.getElementById("messages");
  let stream = null;
  function bubble(cls, text) {
    const el = document.createElement("div");
    el.className = "msg " + cls;
    el.textContent = text;
    list.appendChild(el);
    list.scrollTop = list.scrollHeight;
    return el;
  }
  document.getElementById("ask").addEventListener("submit", ev => {
    ev.preventDefault();
    const input = document.getElementById("query");
    const q = input.value.trim();
    if (!q) return;
    input.value = "";
    if (stream) stream.close();
    bubble("user", q);
    const el = bubble("assistant loading", "Thinking...");
    stream = new EventSource("/api/v1/chat/stream?query=" + encodeURIComponent(q));
    stream.addEventListener("frame", e => {
      el.className = "msg assistant";
      el.textContent = JSON.parse(e.data).text;
      list.scrollTop = list.scrollHeight;
    });
    stream.addEventListener("done", e => {
      const msg = JSON.parse(e.data).message;
      el.className = "msg " + (msg.error ? "error" : "assistant");
      el.textContent = msg.text;
      stream.close();
    });
    stream.onerror = () => {
      if (el.classList.contains("loading")) {
        el.className = "msg error";
        el.textContent = "Sorry, I could not reach the assistant.";
      }
      stream.close();
    };
  });
</script>
{{end}}`
