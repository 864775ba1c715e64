package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// debugPageHandler serves a self-contained HTML dashboard backed by the
// JSON API and the WebSocket feed. It holds no server-side state.
func (s *Server) debugPageHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, debugPageHTML)
}

const debugPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Interview Monitor Debug</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f4f6f8; color: #1f2933; }
  header { background: #102a43; color: #fff; padding: 16px 24px; display: flex; align-items: center; justify-content: space-between; }
  header h1 { font-size: 18px; margin: 0; }
  #ws-state { font-size: 13px; padding: 4px 10px; border-radius: 12px; background: #486581; }
  #ws-state.open { background: #199473; }
  main { padding: 24px; max-width: 1100px; margin: 0 auto; }
  .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; margin-bottom: 24px; }
  .card { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
  .card .label { font-size: 12px; text-transform: uppercase; color: #627d98; }
  .card .value { font-size: 28px; font-weight: 600; margin-top: 4px; }
  .risk-LOW { color: #199473; }
  .risk-MEDIUM { color: #cb6e17; }
  .risk-HIGH { color: #ba2525; }
  section { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.1); margin-bottom: 24px; }
  section h2 { font-size: 14px; margin: 0 0 12px; color: #334e68; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #e4e7eb; }
  th { color: #627d98; font-weight: 500; }
  .controls button { margin-right: 8px; padding: 8px 14px; border: 0; border-radius: 6px; cursor: pointer; font-size: 13px; }
  .controls .primary { background: #2680c2; color: #fff; }
  .controls .danger { background: #ba2525; color: #fff; }
  .controls .neutral { background: #d9e2ec; }
  #feed { max-height: 240px; overflow-y: auto; font-family: ui-monospace, monospace; font-size: 12px; background: #102a43; color: #d9e2ec; padding: 10px; border-radius: 6px; }
  #feed div { padding: 2px 0; }
</style>
</head>
<body>
<header>
  <h1>Interview Behavior Monitor</h1>
  <span id="ws-state">connecting…</span>
</header>
<main>
  <div class="cards">
    <div class="card"><div class="label">Total Events</div><div class="value" id="total-events">–</div></div>
    <div class="card"><div class="label">Overall Risk</div><div class="value" id="overall-risk">–</div></div>
    <div class="card"><div class="label">Risk Level</div><div class="value" id="risk-level">–</div></div>
    <div class="card"><div class="label">Last Updated</div><div class="value" id="last-updated" style="font-size:14px">–</div></div>
  </div>

  <section class="controls">
    <button class="primary" onclick="refresh()">Refresh</button>
    <button class="neutral" onclick="sendTestEvent()">Send Test Event</button>
    <button class="danger" onclick="clearEvents()">Clear All Events</button>
  </section>

  <section>
    <h2>Event Distribution</h2>
    <table>
      <thead><tr><th>Type</th><th>Count</th></tr></thead>
      <tbody id="distribution"></tbody>
    </table>
  </section>

  <section>
    <h2>Recent Events</h2>
    <table>
      <thead><tr><th>ID</th><th>Type</th><th>Timestamp</th><th>Data</th></tr></thead>
      <tbody id="recent"></tbody>
    </table>
  </section>

  <section>
    <h2>Live Feed</h2>
    <div id="feed"></div>
  </section>
</main>
<script>
function fmtTs(ms) {
  if (!ms) return "";
  return new Date(ms).toLocaleTimeString();
}

async function refresh() {
  try {
    const summary = await (await fetch("/api/risk-summary")).json();
    document.getElementById("total-events").textContent = summary.total_events;
    document.getElementById("overall-risk").textContent = summary.overall_risk.toFixed(3);
    const levelEl = document.getElementById("risk-level");
    levelEl.textContent = summary.risk_level;
    levelEl.className = "value risk-" + summary.risk_level;
    document.getElementById("last-updated").textContent = summary.last_updated;

    const dist = document.getElementById("distribution");
    dist.innerHTML = "";
    const counts = summary.event_counts || {};
    Object.keys(counts).sort().forEach(function (type) {
      const row = document.createElement("tr");
      row.innerHTML = "<td>" + type + "</td><td>" + counts[type] + "</td>";
      dist.appendChild(row);
    });

    const list = await (await fetch("/api/events?limit=20")).json();
    const recent = document.getElementById("recent");
    recent.innerHTML = "";
    (list.events || []).forEach(function (ev) {
      const row = document.createElement("tr");
      row.innerHTML = "<td>" + ev.id + "</td><td>" + ev.type + "</td><td>" +
        fmtTs(ev.timestamp) + "</td><td>" + JSON.stringify(ev.data) + "</td>";
      recent.appendChild(row);
    });
  } catch (err) {
    console.error("refresh failed", err);
  }
}

async function sendTestEvent() {
  await fetch("/api/events", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ type: "TEST_EVENT", data: { source: "debug_page" } })
  });
  refresh();
}

async function clearEvents() {
  if (!confirm("Delete all stored events?")) return;
  await fetch("/api/clear");
  refresh();
}

function connectFeed() {
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + "/ws");
  const state = document.getElementById("ws-state");
  const feed = document.getElementById("feed");

  ws.onopen = function () {
    state.textContent = "live";
    state.className = "open";
  };
  ws.onmessage = function (msg) {
    const payload = JSON.parse(msg.data);
    const line = document.createElement("div");
    line.textContent = fmtTs(payload.timestamp) + "  " + JSON.stringify(payload.data);
    feed.prepend(line);
    while (feed.childElementCount > 100) feed.removeChild(feed.lastChild);
    refresh();
  };
  ws.onclose = function () {
    state.textContent = "disconnected";
    state.className = "";
    setTimeout(connectFeed, 3000);
  };
}

refresh();
connectFeed();
setInterval(refresh, 10000);
</script>
</body>
</html>
`
