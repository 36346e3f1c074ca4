package dashboard

import (
	"html/template"

	"botdash/internal/view"
)

const (
	chartWidth  = 800
	chartHeight = 220
)

var emptyStates = map[string]string{
	"awaiting": view.MsgAwaitingData,
	"trades":   view.MsgNoTrades,
	"equity":   view.MsgNoEquity,
	"market":   view.MsgNoMarket,
}

var templateFuncs = template.FuncMap{
	"empty": func(key string) string {
		return emptyStates[key]
	},
	"tone": func(t view.Tone) string {
		return "tone-" + string(t)
	},
	"equityLine": func(s view.EquitySeries) string {
		return view.Polyline(s.Values(), chartWidth, chartHeight)
	},
	"equityBaseline": func(s view.EquitySeries) float64 {
		return view.BaselineY(s.Values(), s.Baseline, chartHeight)
	},
	"priceLine": func(points []view.PricePoint) string {
		return view.Polyline(view.PriceValues(points), chartWidth, chartHeight)
	},
	"first": func(points []view.PricePoint) string {
		if len(points) == 0 {
			return ""
		}
		return points[0].Label
	},
	"last": func(points []view.PricePoint) string {
		if len(points) == 0 {
			return ""
		}
		return points[len(points)-1].Label
	},
}

var pageTemplate = template.Must(template.New("page").Funcs(templateFuncs).Parse(pageHTML))

const pageHTML = `{{define "page"}}<!DOCTYPE html>
<html>
<head>
    <title>Trading Bot Dashboard</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2em; }
        .panel { display: flex; flex-wrap: wrap; gap: 12px; align-items: center; background: white; padding: 15px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .panel button { padding: 6px 14px; border: 0; border-radius: 6px; cursor: pointer; font-weight: 600; }
        .btn-apply { background: #4F46E5; color: white; }
        .btn-start { background: #28a745; color: white; }
        .btn-stop { background: #dc3545; color: white; }
        .btn-reset { background: #ffc107; }
        .status { font-weight: bold; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin-bottom: 20px; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); border-left: 4px solid #818cf8; }
        .card h3 { margin: 0; font-size: 0.9em; color: #666; }
        .card .value { font-size: 1.8em; font-weight: 800; margin: 6px 0; }
        .card .unit { font-size: 0.7em; padding: 2px 8px; border-radius: 10px; background: #eef; }
        .card p { margin: 0; font-size: 0.8em; color: #999; }
        .section { background: white; border-radius: 10px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .empty { color: #888; text-align: center; padding: 30px; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9em; }
        th, td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        th:first-child, td:first-child, th:nth-child(2), td:nth-child(2) { text-align: left; }
        th { background-color: #f8f9fa; text-transform: uppercase; font-size: 0.75em; color: #666; }
        svg { width: 100%; height: 220px; }
        .axis { display: flex; justify-content: space-between; font-size: 0.75em; color: #999; }
        .tone-positive { color: #28a745; }
        .tone-negative { color: #dc3545; }
        .tone-neutral { color: #333; }
        .tone-accent { color: #4F46E5; }
        .tone-muted { color: #999; }
        .tone-highlight { color: #92400e; background: #fef3c7; }
        #notice { position: fixed; top: 20px; right: 20px; padding: 12px 18px; border-radius: 8px; display: none; color: white; }
        #notice.success { background: #28a745; display: block; }
        #notice.warning { background: #d97706; display: block; }
        #notice.error { background: #dc3545; display: block; }
        .footer { font-size: 0.8em; color: #999; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Trading Bot Dashboard</h1></div>
        <div id="notice"></div>
        <div id="dashboard">{{template "dashboard" .}}</div>
    </div>
    <script>
        function notify(resp) {
            const el = document.getElementById('notice');
            el.className = resp.level || (resp.ok ? 'success' : 'error');
            el.textContent = resp.message;
            setTimeout(function() { el.className = ''; }, 4000);
        }

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: body ? JSON.stringify(body) : ''
            }).then(function(r) { return r.json(); }).then(notify).catch(function(err) {
                notify({ ok: false, message: 'Request failed: ' + err });
            });
        }

        function applyConfig() {
            post('/api/control/config', {
                selectedSymbol: document.getElementById('symbol').value,
                tradingMode: document.getElementById('mode').value
            });
        }

        function toggleBot() { post('/api/control/toggle'); }

        function resetData() {
            if (confirm('Are you sure you want to reset all backtest data?')) {
                post('/api/control/reset', { confirm: true });
            }
        }

        function changeInterval(value) { post('/api/interval', { interval: value }); }

        function refresh() {
            const active = document.activeElement;
            if (active && (active.tagName === 'SELECT')) {
                return; // do not clobber an open dropdown
            }
            fetch('/partials/dashboard').then(function(r) { return r.text(); }).then(function(html) {
                document.getElementById('dashboard').innerHTML = html;
            });
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = refresh;
            ws.onclose = function() { setTimeout(connect, 2000); };
        }
        connect();
    </script>
</body>
</html>{{end}}

{{define "dashboard"}}{{$d := .Dashboard}}
<div class="panel">
    <label>Symbol
        <select id="symbol" {{if $d.Running}}disabled{{end}}>
            {{range .Symbols}}<option value="{{.}}" {{if eq . $.Draft.Symbol}}selected{{end}}>{{.}}</option>{{end}}
        </select>
    </label>
    <label>Mode
        <select id="mode" {{if $d.Running}}disabled{{end}}>
            {{range .Modes}}<option value="{{.Code}}" {{if eq .Code $.Draft.Mode}}selected{{end}}>{{.Label}}</option>{{end}}
        </select>
    </label>
    <button class="btn-apply" onclick="applyConfig()" {{if $d.Running}}disabled{{end}}>Apply Config</button>
    <label>Interval
        <select id="interval" onchange="changeInterval(this.value)">
            {{range .Intervals}}<option value="{{.Code}}" {{if .Selected}}selected{{end}}>{{.Label}}</option>{{end}}
        </select>
    </label>
    {{if $d.Running}}<button class="btn-stop" onclick="toggleBot()">Stop Bot</button>{{else}}<button class="btn-start" onclick="toggleBot()">Start Bot</button>{{end}}
    {{if $d.CanReset}}<button class="btn-reset" onclick="resetData()" {{if $d.Running}}disabled{{end}}>Reset Backtest Data</button>{{end}}
    <span class="status">Status: {{if $d.Status}}{{$d.Status}}{{else}}UNKNOWN{{end}}</span>
</div>

{{if $d.Loading}}
<div class="empty">Loading...</div>
{{else if not $d.Ready}}
<div class="empty">{{empty "awaiting"}}</div>
{{else}}
<h2>{{$d.Title}}</h2>
<div class="grid">
    {{range $d.Cards}}
    <div class="card">
        <h3>{{.Title}}</h3>
        <div class="value {{tone .Tone}}">{{.Value}} <span class="unit">{{.Unit}}</span></div>
        <p>{{.Description}}</p>
    </div>
    {{end}}
</div>

<div class="section">
    <h3>Market Price Context ({{$d.Symbol}}, {{$d.MarketIntervalLabel}})</h3>
    {{if $d.Market}}
    <svg viewBox="0 0 800 220" preserveAspectRatio="none">
        <polyline fill="none" stroke="#4F46E5" stroke-width="2" points="{{priceLine $d.Market}}"/>
    </svg>
    <div class="axis"><span>{{first $d.Market}}</span><span>{{last $d.Market}}</span></div>
    {{else}}
    <div class="empty">{{empty "market"}}</div>
    {{end}}
</div>

<div class="section">
    <h3>Portfolio Equity Curve</h3>
    {{if $d.Equity.Points}}
    <svg viewBox="0 0 800 220" preserveAspectRatio="none">
        <line x1="0" x2="800" y1="{{equityBaseline $d.Equity}}" y2="{{equityBaseline $d.Equity}}" stroke="#999" stroke-dasharray="5 5"/>
        <polyline fill="none" class="{{tone $d.Equity.Tone}}" stroke="currentColor" stroke-width="2" points="{{equityLine $d.Equity}}"/>
    </svg>
    {{else}}
    <div class="empty">{{empty "equity"}}</div>
    {{end}}
</div>

<div class="section">
    <h3>Trade History ({{$d.TradeCount}} Trades)</h3>
    {{if $d.Trades}}
    <table>
        <thead><tr><th>Date</th><th>Symbol</th><th>Action</th><th>Quantity</th><th>Price</th><th>Fee</th><th>Realized PnL</th><th>Final Balance</th></tr></thead>
        <tbody>
        {{range $d.Trades}}
            <tr>
                <td>{{.Time}}</td>
                <td>{{.Symbol}}</td>
                <td class="{{tone .ActionTone}}"><b>{{.Action}}</b></td>
                <td>{{.Quantity}}</td>
                <td>{{.Price}}</td>
                <td>{{.Fee}}</td>
                <td class="{{tone .PnL.Tone}}">{{.PnL.Text}}</td>
                <td>{{.FinalBalance}}</td>
            </tr>
        {{end}}
        </tbody>
    </table>
    {{else}}
    <div class="empty">{{empty "trades"}}</div>
    {{end}}
</div>
{{end}}
<div class="footer">Last updated: {{$d.LastUpdated}}</div>
{{end}}`
