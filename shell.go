package via

import (
	"encoding/json"
	"fmt"

	"github.com/go-via/via/viactx"
)

// Shell is the fixed HTML skeleton of spec.md §6: "five placeholders:
// context id, initial signals JSON (must embed via_ctx), developer-
// defined head fragments, rendered view, foot fragments."
type Shell struct {
	Head string
	Foot string
}

// renderShell assembles the shell document for a freshly created context,
// embedding the context id, the seed signals (with via_ctx folded in),
// and the initial view render.
func (app *Application) renderShell(ctx *viactx.Context, view string, seedSignals map[string]any, shell Shell) (string, error) {
	if seedSignals == nil {
		seedSignals = map[string]any{}
	}
	seedSignals["via_ctx"] = ctx.ID()

	signalsJSON, err := json.Marshal(seedSignals)
	if err != nil {
		return "", fmt.Errorf("via: encode seed signals: %w", err)
	}

	scriptTag := app.Assets.ScriptTag("via-client")

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
%s
<meta name="via-signals" content='%s'>
<meta name="via-sse" content="/_sse">
<meta name="via-onunload" content="navigator.sendBeacon('/_session/close', %q)">
%s
</head>
<body data-on-load="@get('/_sse')" data-signals='%s'>
%s
%s
</body>
</html>`,
		app.cfg.DocumentTitle,
		scriptTag,
		signalsJSON,
		ctx.ID(),
		shell.Head,
		signalsJSON,
		view,
		shell.Foot,
	)
	return html, nil
}
