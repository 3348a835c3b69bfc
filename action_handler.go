package via

import (
	"log"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// handleAction implements GET|POST /_action/<id> of spec.md §6: the
// body carries the Datastar signals object (which must include
// via_ctx); 200 empty on success, 400 if the context is missing or
// unknown, 500 if the action handler returns an error.
func (app *Application) handleAction(w http.ResponseWriter, r *http.Request, actionID string) {
	if actionID == "" {
		http.Error(w, "Invalid context", http.StatusBadRequest)
		return
	}

	var sigs map[string]any
	_ = datastar.ReadSignals(r, &sigs)
	contextID, _ := sigs["via_ctx"].(string)
	if contextID == "" {
		http.Error(w, "Invalid context", http.StatusBadRequest)
		return
	}

	ctx, ok := app.Context(contextID)
	if !ok {
		http.Error(w, "Invalid context", http.StatusBadRequest)
		return
	}

	delete(sigs, "via_ctx")
	ctx.ApplyInboundSignals(sigs)

	if err := ctx.ExecuteAction(actionID); err != nil {
		log.Printf("via: action %q on context %s failed: %v", actionID, contextID, err)
		http.Error(w, "Action failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
