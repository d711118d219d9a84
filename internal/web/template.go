package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sweeney/setpoint-scheduler/internal/logic"
	"github.com/sweeney/setpoint-scheduler/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm", days, h, m)
		}
		return d.String()
	},
	"state": func(s logic.State) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
	"setpoint": func(r logic.Reading) string {
		if !r.Valid {
			return "none"
		}
		return fmt.Sprintf("%d°", r.SetPoint)
	},
	"reltime": func(now, then time.Time) string {
		return humanize.RelTime(then, now, "ago", "from now")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Set Point Scheduler</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.setpoint { font-size: 1.6em; }
</style>
</head>
<body>
<h1>Set Point Scheduler</h1>

<h2>Schedule</h2>
<table>
<tr><th>Set point</th><td id="setpoint" class="setpoint">{{setpoint .Reading}}</td></tr>
<tr><th>Next change</th><td id="next-change">{{if .Reading.NextChange.IsZero}}none scheduled{{else}}{{.Reading.NextChange.Format "Mon 15:04"}} ({{reltime .Now .Reading.NextChange}}){{end}}</td></tr>
<tr><th>Season</th><td>{{.Season}}</td></tr>
<tr><th>Away</th><td class="{{if eq (state .Away) "ON"}}on{{else if eq (state .Away) "OFF"}}off{{else}}unknown{{end}}">{{state .Away}}</td></tr>
<tr><th>Holiday</th><td class="{{if eq (state .Holiday) "ON"}}on{{else if eq (state .Holiday) "OFF"}}off{{else}}unknown{{end}}">{{state .Holiday}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Set point changes</th><td>{{.Counts.SetPoint}}</td></tr>
<tr><th>Away on/off</th><td>{{.Counts.AwayOn}} / {{.Counts.AwayOff}}</td></tr>
<tr><th>Holiday on/off</th><td>{{.Counts.HolidayOn}} / {{.Counts.HolidayOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Store</th><td>{{.Config.Store}}</td></tr>
<tr><th>Clock</th><td>{{.Config.RTC}} ({{.Config.Location}})</td></tr>
<tr><th>Day begins</th><td>{{.Config.AMBegin}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/schedule.json">Schedule</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
