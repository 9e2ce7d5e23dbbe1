package web

import (
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/conveyor-interlock/internal/status"
)

var pageFuncs = template.FuncMap{
	"since": func(d time.Duration) string {
		return d.Truncate(time.Second).String()
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
	"signal": func(asserted bool) template.HTML {
		if asserted {
			return `<span class="bad">ASSERTED</span>`
		}
		return `<span class="ok">clear</span>`
	},
	// badge maps a system status to a CSS class.
	"badge": func(system string) string {
		switch system {
		case "RUNNING", "IDLE":
			return "ok"
		case "UNKNOWN":
			return "warn"
		}
		return "bad"
	},
}

var pageTmpl = template.Must(template.New("page").Funcs(pageFuncs).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Conveyor Interlock</title>
<style>
body { font: 14px/1.4 system-ui, sans-serif; margin: 1.5em auto; max-width: 42em; padding: 0 1em; color: #222; }
header { display: flex; justify-content: space-between; align-items: baseline; }
.banner { padding: .8em 1em; border-radius: 4px; font-weight: bold; margin: 1em 0; }
.banner.ok { background: #e6f4e6; }
.banner.warn { background: #fff4d6; }
.banner.bad { background: #fde2e2; }
dl { display: grid; grid-template-columns: 14em 1fr; gap: .3em 1em; }
dt { color: #666; }
dd { margin: 0; }
.ok { color: #1a7f1a; }
.warn { color: #a66a00; }
.bad { color: #c01818; }
footer { margin-top: 2em; font-size: .9em; }
</style>
</head>
<body>
<header>
<h1>Conveyor Interlock</h1>
{{if .Config.Simulated}}<span class="warn">simulated hardware</span>{{end}}
</header>

<div class="banner {{badge .Info.System}}">{{.Info.Message}}</div>

<dl>
<dt>State</dt><dd>{{.Info.State}}</dd>
<dt>Motor running</dt><dd>{{yesno .Info.Running}}</dd>
<dt>Jam latched</dt><dd>{{yesno .Info.JamActive}}</dd>
<dt>Available for transport</dt><dd>{{yesno .Info.Available}}</dd>
<dt>E-Stop</dt><dd>{{signal .Info.Safety.EStop}}</dd>
<dt>Drive fault</dt><dd>{{signal .Info.Safety.Fault}}</dd>
<dt>E-Stop transitions</dt><dd>{{.Counts.EStopOn}} on, {{.Counts.EStopOff}} off</dd>
<dt>Fault transitions</dt><dd>{{.Counts.FaultOn}} on, {{.Counts.FaultOff}} off</dd>
<dt>Alarms since start</dt><dd>{{.Alarms}}</dd>
<dt>MQTT</dt><dd>{{if .MQTTConnected}}<span class="ok">connected</span>{{else}}<span class="bad">disconnected</span>{{end}} ({{.Config.Broker}})</dd>
<dt>Up</dt><dd>{{since .Uptime}} (since {{.Info.StartTime}})</dd>
<dt>Poll / heartbeat</dt><dd>{{.Config.PollMs}}ms / {{if .Config.HeartbeatMs}}{{.Config.HeartbeatMs}}ms{{else}}off{{end}}</dd>
{{with .Config.Journal}}<dt>Journal</dt><dd>{{.}}</dd>{{end}}
</dl>

<footer><a href="/index.json">status JSON</a> | <a href="/api/alarms">alarms</a> | <a href="/docs">API docs</a></footer>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	page := struct {
		status.Snapshot
		Uptime time.Duration
		Info   status.StatusInner
	}{snap, snap.Uptime(), status.Build(snap)}

	if err := pageTmpl.Execute(w, page); err != nil {
		log.Printf("web: render page: %v", err)
	}
}
