package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/status"
)

// row is one input line on the monitor page.
type row struct {
	ID    string
	State string
	On    bool
}

// pageData feeds the monitor template.
type pageData struct {
	Buttons  []row
	Switches []row
	Encoders []row
	Uptime   string
	Clients  int
	MQTT     bool
	Broker   string
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := pageData{
		Uptime:  formatUptime(snap.Uptime()),
		Clients: snap.WSClients,
		MQTT:    snap.MQTTConnected,
		Broker:  snap.Config.Broker,
	}

	for _, id := range sortedKeys(snap.Inputs.Buttons) {
		data.Buttons = append(data.Buttons, boolRow(id, snap.Inputs.Buttons[id]))
	}
	for _, id := range sortedKeys(snap.Inputs.Switches) {
		data.Switches = append(data.Switches, boolRow(id, snap.Inputs.Switches[id]))
	}

	encoderIDs := make([]int, 0, len(snap.Inputs.Encoders))
	for id := range snap.Inputs.Encoders {
		encoderIDs = append(encoderIDs, id)
	}
	sort.Ints(encoderIDs)
	for _, id := range encoderIDs {
		data.Encoders = append(data.Encoders, row{
			ID:    fmt.Sprintf("%d", id),
			State: fmt.Sprintf("%d", snap.Inputs.Encoders[id]),
		})
	}

	indexTmpl.Execute(w, data)
}

func boolRow(id string, active bool) row {
	state := "RELEASED"
	if active {
		state = "PRESSED"
	}
	return row{ID: id, State: state, On: active}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Cyberdeck Inputs</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Cyberdeck Inputs</h1>
<table>
<tr><th>Uptime</th><td>{{.Uptime}}</td></tr>
<tr><th>Subscribers</th><td>{{.Clients}}</td></tr>
{{if .Broker}}<tr><th>MQTT</th><td class="{{if .MQTT}}connected{{else}}disconnected{{end}}">{{if .MQTT}}connected{{else}}disconnected{{end}} ({{.Broker}})</td></tr>{{end}}
</table>

<h1>Button</h1>
<table>
{{range .Buttons}}<tr><th>{{.ID}}</th><td class="{{if .On}}on{{else}}off{{end}}" data-button="{{.ID}}">{{.State}}</td></tr>
{{end}}</table>

<h1>Switches</h1>
<table>
{{range .Switches}}<tr><th>{{.ID}}</th><td class="{{if .On}}on{{else}}off{{end}}" data-switch="{{.ID}}">{{.State}}</td></tr>
{{end}}</table>

<h1>Rotary Encoders</h1>
<table>
{{range .Encoders}}<tr><th>{{.ID}}</th><td data-encoder="{{.ID}}">{{.State}}</td></tr>
{{end}}</table>

<script>
(function() {
	var proto = location.protocol === "https:" ? "wss://" : "ws://";
	var sock = new WebSocket(proto + location.host + "/ws");
	function setBool(el, active) {
		if (!el) return;
		el.textContent = active ? "PRESSED" : "RELEASED";
		el.className = active ? "on" : "off";
	}
	sock.onmessage = function(msg) {
		var frame = JSON.parse(msg.data);
		var d = frame.data;
		switch (frame.event) {
		case "initial_state":
			Object.keys(d.buttons).forEach(function(id) {
				setBool(document.querySelector('[data-button="' + id + '"]'), d.buttons[id].active);
			});
			Object.keys(d.switches).forEach(function(id) {
				setBool(document.querySelector('[data-switch="' + id + '"]'), d.switches[id].active);
			});
			Object.keys(d.encoders).forEach(function(id) {
				var el = document.querySelector('[data-encoder="' + id + '"]');
				if (el) el.textContent = d.encoders[id];
			});
			break;
		case "key_change":
			setBool(document.querySelector("[data-button]"), d.active);
			break;
		case "switch_change":
			setBool(document.querySelector('[data-switch="' + d.switch + '"]'), d.active);
			break;
		case "encoder_change":
			var el = document.querySelector('[data-encoder="' + d.encoder_id + '"]');
			if (el) el.textContent = d.value;
			break;
		}
	};
})();
</script>
</body>
</html>
`
