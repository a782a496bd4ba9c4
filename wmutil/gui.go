/*
Copyright © 2019 the watermass authors.
This file is part of watermass.

watermass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

watermass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with watermass.  If not, see <http://www.gnu.org/licenses/>.
*/

package wmutil

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// GUIAddress is the address the graphical interface is served at.
var GUIAddress = "localhost:7272"

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Configure and run commands in a web browser.",
	Long: `gui starts a local web server that allows the other commands to be
configured and run from a web browser, and opens it in the default browser.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		StartWebServer()
		return nil
	},
	DisableAutoGenTag: true,
}

// configHandler reads the configuration file given in the request and
// responds with the resulting option values.
func configHandler(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	Root.PersistentFlags().Set("config", r.Form.Get("config"))
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	e := json.NewEncoder(w)
	if err := e.Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StartWebServer starts the web server.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", configHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, censusCmd, tracerCmd,
		compareCmd, ventilationCmd, streamFunctionCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	const tmpl = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>watermass</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
	</style>
</head>
<body>
<div class="container">
	<h1>watermass</h1>
	<p>Configure the analysis below.</p>
	<div>
		{{.}}
	</div>
</div>
<script>
let allFlags = [...document.querySelectorAll('[data-name]')];
let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("/setConfig?config="+configInput.value)
		.then(res => {
			if (res.status !== 200) {
				configInput.classList.add("red-border");
				return;
			}
			res.json().then(data => {
				configInput.classList.remove("red-border");
				for (let key in data)
					for (let f of allFlags)
						if (f.dataset.name == key) {
							let input = f.children[0];
							input.value = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
							input.classList.add("green-border");
						}
			})
		})
});
</script>
</body>
</html>`

	output := template.Must(template.New("").Parse(tmpl))
	server := gobra.Server{Root: Root, ServerAddress: GUIAddress, AllowCORS: false, HTML: output}
	logrus.WithField("address", GUIAddress).Info("starting server")
	if err := open.Run("http://" + GUIAddress); err != nil {
		logrus.WithError(err).Warn("could not open web browser; please visit http://" + GUIAddress)
	}
	server.Start()
}
