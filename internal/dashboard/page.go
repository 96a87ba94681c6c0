package dashboard

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

type pageData struct {
	Title   string
	Options optionsResponse
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Title: "Falcon 9 First Stage Landing Prediction", Options: s.options()}
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard page")
	}
}

var pageTemplate = template.Must(template.New("dashboard").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; }
        .card { background: white; padding: 20px; margin: 10px 0; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
        .metric { display: flex; justify-content: space-between; margin: 6px 0; }
        .metric-value { font-weight: bold; }
        .tabs button { padding: 8px 16px; margin-right: 4px; border: 0; border-radius: 4px; cursor: pointer; }
        .tabs button.active { background: #1f77b4; color: white; }
        .hidden { display: none; }
        .success { color: #28a745; }
        .failure { color: #dc3545; }
        .error { color: #dc3545; font-weight: bold; }
        .progress-bar { width: 100%; height: 20px; background-color: #e0e0e0; border-radius: 10px; overflow: hidden; }
        .progress-fill { height: 100%; background-color: #1f77b4; transition: width 0.3s ease; }
        .bar-row { display: grid; grid-template-columns: 220px 1fr 70px; gap: 8px; align-items: center; margin: 4px 0; }
        label { display: block; margin: 8px 0 2px; }
        table.heatmap { border-collapse: collapse; font-size: 12px; }
        table.heatmap td, table.heatmap th { border: 1px solid #ddd; padding: 4px 6px; text-align: center; }
        #map { height: 400px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="tabs">
            <button id="tab-predict" class="active" onclick="showTab('predict')">Prediction</button>
            <button id="tab-dashboard" onclick="showTab('dashboard')">Historical Dashboard</button>
        </div>

        <div id="panel-predict">
            <div class="grid">
                <div class="card">
                    <h3>Launch Parameters</h3>
                    <form id="predict-form" onsubmit="predict(event)">
                        <label>Flight Number</label>
                        <input type="number" name="flight_number" min="{{.Options.Bounds.MinFlightNumber}}" value="{{.Options.Defaults.FlightNumber}}">
                        <label>Payload Mass (kg)</label>
                        <input type="number" name="PayloadMass" min="{{.Options.Bounds.MinPayloadMass}}" max="{{.Options.Bounds.MaxPayloadMass}}" step="{{.Options.Bounds.PayloadMassStep}}" value="{{.Options.Defaults.PayloadMass}}">
                        <label>Previous Flights of Booster</label>
                        <input type="number" name="Flights" min="{{.Options.Bounds.MinFlights}}" value="{{.Options.Defaults.Flights}}">
                        <label>Orbit</label>
                        <select name="Orbit">{{range .Options.Orbits}}<option>{{.}}</option>{{end}}</select>
                        <label>Launch Site</label>
                        <select name="LaunchSiteName">{{range .Options.Sites}}<option>{{.}}</option>{{end}}</select>
                        <label>Grid Fins</label>
                        <select name="GridFins"><option>Yes</option><option>No</option></select>
                        <label>Reused Booster</label>
                        <select name="Reused"><option>No</option><option>Yes</option></select>
                        <label>Landing Legs</label>
                        <select name="Legs"><option>Yes</option><option>No</option></select>
                        <p><button type="submit">Predict Landing Outcome</button></p>
                    </form>
                </div>
                <div class="card">
                    <h3>Prediction</h3>
                    <div id="prediction">Submit the form to predict the landing outcome.</div>
                </div>
            </div>
        </div>

        <div id="panel-dashboard" class="hidden">
            <div class="card">
                <h3>Filters</h3>
                <div class="grid">
                    <div><label>Launch Sites</label><select id="f-sites" multiple size="4"></select></div>
                    <div><label>Orbits</label><select id="f-orbits" multiple size="6"></select></div>
                    <div>
                        <label>Payload Min (kg)</label><input type="number" id="f-min">
                        <label>Payload Max (kg)</label><input type="number" id="f-max">
                        <label>Outcome</label>
                        <select id="f-outcome"><option value="all">All</option><option value="success">Success</option><option value="failure">Failure</option></select>
                    </div>
                </div>
            </div>
            <div class="grid">
                <div class="card"><div class="metric"><span>Total Launches</span><span class="metric-value" id="kpi-total">-</span></div></div>
                <div class="card"><div class="metric"><span>Successful Landings</span><span class="metric-value" id="kpi-success">-</span></div></div>
                <div class="card"><div class="metric"><span>Success Rate</span><span class="metric-value" id="kpi-rate">-</span></div></div>
            </div>
            <div class="grid">
                <div class="card"><h3>Success Rate by Launch Site</h3><div id="by-site"></div></div>
                <div class="card"><h3>Success Rate by Orbit</h3><div id="by-orbit"></div></div>
            </div>
            <div class="card"><h3>Payload Mass vs Flight Number</h3><svg id="scatter" width="100%" height="320" viewBox="0 0 800 320"></svg></div>
            <div class="card"><h3>Success Rate by Orbit and Payload Range</h3><div id="heatmap"></div></div>
            <div class="card"><h3>Launch Sites</h3><div id="map"></div></div>
        </div>
    </div>

    <script>
        const options = {{.Options}};
        let ws = null;
        let map = null;

        function showTab(name) {
            for (const t of ['predict', 'dashboard']) {
                document.getElementById('panel-' + t).classList.toggle('hidden', t !== name);
                document.getElementById('tab-' + t).classList.toggle('active', t === name);
            }
            if (name === 'dashboard') { connect(); }
        }

        async function predict(ev) {
            ev.preventDefault();
            const form = new FormData(ev.target);
            const body = {};
            for (const [k, v] of form.entries()) {
                body[k] = ['flight_number', 'PayloadMass', 'Flights'].includes(k) ? Number(v) : v;
            }
            const out = document.getElementById('prediction');
            try {
                const resp = await fetch('/api/predict', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body)});
                const data = await resp.json();
                if (!resp.ok) { out.innerHTML = '<p class="error"></p>'; out.firstChild.textContent = data.error; return; }
                const cls = data.class === 'SUCCESS' ? 'success' : 'failure';
                out.innerHTML = '<h2 class="' + cls + '">' + data.class + '</h2>' +
                    '<div class="metric"><span>Success Probability</span><span class="metric-value">' + data.percent + '</span></div>' +
                    '<div class="progress-bar"><div class="progress-fill" style="width: ' + (data.probability * 100) + '%"></div></div>';
            } catch (e) {
                out.innerHTML = '<p class="error">Prediction request failed.</p>';
            }
        }

        function fillSelect(id, values) {
            const sel = document.getElementById(id);
            sel.innerHTML = '';
            for (const v of values) {
                const o = document.createElement('option');
                o.value = v; o.textContent = v; o.selected = true;
                sel.appendChild(o);
            }
            sel.onchange = sendFilter;
        }

        function currentFilter() {
            const selected = id => Array.from(document.getElementById(id).selectedOptions).map(o => o.value);
            const num = id => { const v = document.getElementById(id).value; return v === '' ? null : Number(v); };
            return {
                sites: selected('f-sites'),
                orbits: selected('f-orbits'),
                payload_min: num('f-min'),
                payload_max: num('f-max'),
                outcome: document.getElementById('f-outcome').value
            };
        }

        function sendFilter() {
            if (ws && ws.readyState === WebSocket.OPEN) { ws.send(JSON.stringify(currentFilter())); }
        }

        function connect() {
            if (ws) { return; }
            fillSelect('f-sites', options.dataset.sites || []);
            fillSelect('f-orbits', options.dataset.orbits || []);
            document.getElementById('f-min').value = options.dataset.payload_min;
            document.getElementById('f-max').value = options.dataset.payload_max;
            for (const id of ['f-min', 'f-max', 'f-outcome']) { document.getElementById(id).onchange = sendFilter; }

            ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
            ws.onmessage = ev => {
                const msg = JSON.parse(ev.data);
                if (msg.type === 'summary') { render(msg.summary); }
                else { document.getElementById('kpi-rate').textContent = msg.error; }
            };
            ws.onclose = () => { ws = null; };
        }

        function bars(id, rows) {
            const el = document.getElementById(id);
            el.innerHTML = '';
            for (const r of rows) {
                const row = document.createElement('div');
                row.className = 'bar-row';
                row.innerHTML = '<span></span><div class="progress-bar"><div class="progress-fill" style="width: ' + (r.rate * 100) + '%"></div></div><span>' + (r.rate * 100).toFixed(1) + '%</span>';
                row.firstChild.textContent = r.key + ' (' + r.launches + ')';
                el.appendChild(row);
            }
        }

        function scatter(points) {
            const svg = document.getElementById('scatter');
            svg.innerHTML = '';
            if (!points.length) { return; }
            const maxX = Math.max(...points.map(p => p.flight_number), 1);
            const maxY = Math.max(...points.map(p => p.payload_mass), 1);
            for (const p of points) {
                const c = document.createElementNS('http://www.w3.org/2000/svg', 'circle');
                c.setAttribute('cx', 40 + p.flight_number / maxX * 740);
                c.setAttribute('cy', 300 - p.payload_mass / maxY * 280);
                c.setAttribute('r', 5);
                c.setAttribute('fill', p.class === 1 ? '#28a745' : '#dc3545');
                svg.appendChild(c);
            }
        }

        function heatmap(h) {
            const table = document.createElement('table');
            table.className = 'heatmap';
            const head = table.insertRow();
            head.insertCell().textContent = 'Orbit';
            for (const b of h.bins) { head.insertCell().textContent = b; }
            h.orbits.forEach((orbit, i) => {
                const row = table.insertRow();
                row.insertCell().textContent = orbit;
                for (const v of h.cells[i]) {
                    const cell = row.insertCell();
                    if (v === null) { continue; }
                    cell.textContent = (v * 100).toFixed(0) + '%';
                    cell.style.background = 'rgba(31, 119, 180, ' + (0.15 + 0.85 * v) + ')';
                }
            });
            const el = document.getElementById('heatmap');
            el.innerHTML = '';
            el.appendChild(table);
        }

        function siteMap(view) {
            if (map) { return; }
            map = L.map('map').setView([view.center_latitude, view.center_longitude], view.zoom);
            L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {attribution: '&copy; OpenStreetMap contributors'}).addTo(map);
            for (const m of view.markers) {
                L.circleMarker([m.latitude, m.longitude], {color: m.color, radius: 10}).bindPopup(m.popup).addTo(map);
            }
        }

        function render(s) {
            document.getElementById('kpi-total').textContent = s.kpis.total;
            document.getElementById('kpi-success').textContent = s.kpis.successes;
            document.getElementById('kpi-rate').textContent = s.kpis.rate_label;
            bars('by-site', s.by_site || []);
            bars('by-orbit', s.by_orbit || []);
            scatter(s.scatter || []);
            heatmap(s.heatmap);
            siteMap(s.map);
        }
    </script>
</body>
</html>
`
