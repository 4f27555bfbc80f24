package portal

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/fernwood-labs/adsnode/internal/confstore"
)

// formPage is the whole portal UI. The styling budget is zero: the page
// is served from a battery-powered node to a phone standing next to it.
const formPage = `<!DOCTYPE html>
<html>
<head><meta name="viewport" content="width=device-width, initial-scale=1"><title>adsnode setup</title></head>
<body>
<h1>adsnode setup</h1>
<form method="POST" action="/save">
  <fieldset><legend>Network</legend>
    <label>SSID <input name="ssid" maxlength="32" value="{{.SSID}}"></label><br>
    <label>Passphrase <input name="passphrase" type="password" maxlength="63"></label>
  </fieldset>
  <fieldset><legend>MQTT</legend>
    <label>Server <input name="server" maxlength="20" value="{{.Broker.Host}}"></label><br>
    <label>User <input name="user" maxlength="20" value="{{.Broker.User}}"></label><br>
    <label>Password <input name="password" type="password" maxlength="20" value="{{.Broker.Password}}"></label><br>
    <label>Port <input name="port" maxlength="6" value="{{.Broker.Port}}"></label><br>
    <label>Topic <input name="topic" maxlength="20" value="{{.Broker.Topic}}"></label>
  </fieldset>
  <button type="submit">Save</button>
</form>
</body>
</html>`

var formTemplate = template.Must(template.New("form").Parse(formPage))

// savedPage confirms the submission before the AP goes away.
const savedPage = `<!DOCTYPE html>
<html><body><h1>Saved</h1><p>The node is rejoining the network. You can close this page.</p></body></html>`

// formData feeds the form template.
type formData struct {
	SSID   string
	Broker confstore.BrokerConfig
}

// handleForm renders the form pre-populated with the current config.
func (p *Portal) handleForm(current confstore.BrokerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := formTemplate.Execute(w, formData{Broker: current}); err != nil {
			p.logger.Warn("rendering portal form", "error", err)
		}
	}
}

// handleSave parses the submission and hands it to the waiting Run call.
func (p *Portal) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(r.PostFormValue("port"))
	if err != nil {
		port = 0 // Clamp substitutes the default.
	}

	sub := Submission{
		SSID:       r.PostFormValue("ssid"),
		Passphrase: r.PostFormValue("passphrase"),
		Broker: confstore.BrokerConfig{
			Host:     r.PostFormValue("server"),
			User:     r.PostFormValue("user"),
			Password: r.PostFormValue("password"),
			Port:     port,
			Topic:    r.PostFormValue("topic"),
		}.Clamp(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(savedPage)) //nolint:errcheck // Client may already be gone

	// Non-blocking: the first submission wins, later ones are dropped.
	select {
	case p.submissions <- sub:
	default:
	}
}
