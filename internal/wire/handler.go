package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/freightwise/cargodesk/internal/event"
	"github.com/freightwise/cargodesk/internal/forms"
	"github.com/freightwise/cargodesk/internal/wizard"
)

// Handler manages WebSocket connections for wizard sessions.
type Handler struct {
	sessions    *wizard.Manager
	validator   wizard.PayloadValidator
	dispatcher  wizard.Dispatcher
	recorder    event.Recorder
	navCooldown time.Duration
}

// NewHandler creates a WebSocket handler with all dependencies.
func NewHandler(sessions *wizard.Manager, v wizard.PayloadValidator, d wizard.Dispatcher, r event.Recorder) *Handler {
	return &Handler{
		sessions:    sessions,
		validator:   v,
		dispatcher:  d,
		recorder:    r,
		navCooldown: 3 * time.Second,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The first
// message must be "open"; everything else before that is rejected.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var sess *wizard.Session

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		if msg.Type == "ping" {
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
			continue
		}
		if msg.Type == "open" {
			if sess != nil {
				h.sendError(ctx, conn, msg.ID, "already_open", "session already open on this connection")
				continue
			}
			sess = h.handleOpen(ctx, conn, msg)
			continue
		}
		if sess == nil {
			h.sendError(ctx, conn, msg.ID, "no_session", "send an open message first")
			continue
		}

		switch msg.Type {
		case "initialize":
			h.handleInitialize(ctx, conn, sess, msg)
		case "set_field":
			h.handleSetField(ctx, conn, sess, msg)
		case "add_item", "remove_item", "set_item_field":
			h.handleItem(ctx, conn, sess, msg)
		case "next":
			if errs := sess.GoNext(); len(errs) > 0 {
				h.send(ctx, conn, ServerMessage{Type: "errors", RequestID: msg.ID, Data: ErrorsData{Errors: errs}})
				continue
			}
			h.sendState(ctx, conn, sess, msg.ID)
		case "prev":
			sess.GoPrev()
			h.sendState(ctx, conn, sess, msg.ID)
		case "goto":
			h.handleGoto(ctx, conn, sess, msg)
		case "snapshot":
			h.handleSnapshot(ctx, conn, sess, msg)
		case "restore":
			h.handleRestore(ctx, conn, sess, msg)
		case "submit":
			if h.handleSubmit(ctx, conn, sess, msg) {
				return
			}
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleOpen(ctx context.Context, conn *websocket.Conn, msg ClientMessage) *wizard.Session {
	var data OpenData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid open data")
		return nil
	}
	def, ok := forms.Lookup(data.WizardType)
	if !ok {
		h.sendError(ctx, conn, msg.ID, "unknown_wizard", "unknown wizard type: "+data.WizardType)
		return nil
	}
	mode, ok := wizard.ParseSessionMode(data.Mode)
	if !ok {
		h.sendError(ctx, conn, msg.ID, "invalid_mode", "unknown mode: "+data.Mode)
		return nil
	}
	if mode != wizard.ModeCreate && data.ResourceID == "" {
		h.sendError(ctx, conn, msg.ID, "missing_resource", "resource_id is required for "+string(mode)+" mode")
		return nil
	}
	sess := h.sessions.Create(def, mode, data.ResourceID)
	if mode != wizard.ModeCreate && (data.Sections != nil || data.Lists != nil) {
		if err := sess.Initialize(data.Sections, data.Lists); err != nil {
			h.sessions.Remove(sess.ID)
			h.sendError(ctx, conn, msg.ID, "invalid_resource", err.Error())
			return nil
		}
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "session",
		RequestID: msg.ID,
		Data: SessionData{
			SessionID:  sess.ID,
			WizardType: def.Type,
			Mode:       string(mode),
		},
	})
	h.sendState(ctx, conn, sess, msg.ID)
	return sess
}

func (h *Handler) handleInitialize(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var data OpenData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid initialize data")
		return
	}
	if err := sess.Initialize(data.Sections, data.Lists); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_resource", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleSetField(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var data SetFieldData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid set_field data")
		return
	}
	if err := sess.SetField(data.Section, data.Field, data.Value); err != nil {
		h.sendError(ctx, conn, msg.ID, "set_failed", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleItem(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var data ItemData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid item data")
		return
	}
	var err error
	switch msg.Type {
	case "add_item":
		err = sess.AddListItem(data.List)
	case "remove_item":
		err = sess.RemoveListItem(data.List, data.Index)
	case "set_item_field":
		err = sess.SetItemField(data.List, data.Index, data.Field, data.Value)
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "item_failed", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleGoto(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var data GotoData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid goto data")
		return
	}
	if err := sess.GoToStep(data.Step); err != nil {
		h.sendError(ctx, conn, msg.ID, "step_gated", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleSnapshot(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var data SnapshotData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid snapshot data")
			return
		}
	}
	var returnCtx json.RawMessage
	if data.ReturnContext != nil {
		raw, err := json.Marshal(data.ReturnContext)
		if err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", err.Error())
			return
		}
		returnCtx = raw
	}
	snap, err := sess.BeginNavigation(returnCtx, h.navCooldown)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "navigation_in_flight", err.Error())
		return
	}
	h.send(ctx, conn, ServerMessage{Type: "snapshot", RequestID: msg.ID, Data: snap})
}

func (h *Handler) handleRestore(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) {
	var snap wizard.Snapshot
	if err := json.Unmarshal(msg.Data, &snap); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_snapshot", err.Error())
		return
	}
	sess.EndNavigation()
	if err := sess.Restore(&snap); err != nil {
		log.Printf("wire: restore failed for session %s: %v", sess.ID, err)
		h.sendError(ctx, conn, msg.ID, "restore_failed", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

// handleSubmit reports whether the connection should close.
func (h *Handler) handleSubmit(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, msg ClientMessage) bool {
	result, fieldErrs, err := sess.Submit(ctx, h.validator, h.dispatcher)
	if len(fieldErrs) > 0 {
		h.send(ctx, conn, ServerMessage{Type: "errors", RequestID: msg.ID, Data: ErrorsData{Errors: fieldErrs}})
		return false
	}
	if err != nil {
		h.record(ctx, event.SubmissionFailed(sess.Def.Type, err))
		h.sendError(ctx, conn, msg.ID, "submit_failed", err.Error())
		return false
	}
	payload, _ := sess.Assemble()
	h.record(ctx, event.Submitted(sess.Def.Type, result.ID, payload, secondaryRows(sess)))
	h.sessions.Remove(sess.ID)
	h.send(ctx, conn, ServerMessage{
		Type:      "done",
		RequestID: msg.ID,
		Data: DoneData{
			ResourceID: result.ID,
			Redirect:   "/" + sess.Def.ResourcePath + "?refresh=1",
		},
	})
	return true
}

func secondaryRows(sess *wizard.Session) []map[string]any {
	if sess.Def.SecondaryList == "" {
		return nil
	}
	var rows []map[string]any
	for _, it := range sess.List(sess.Def.SecondaryList) {
		if it.IsBlank() {
			continue
		}
		row := map[string]any{}
		for k, v := range it.Extra {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *Handler) record(ctx context.Context, evt event.DomainEvent) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, evt); err != nil {
		log.Printf("wire: event recording failed: %v", err)
	}
}

func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn, sess *wizard.Session, requestID string) {
	sections := map[string]SectionState{}
	for _, schema := range sess.Def.Sections {
		sections[schema.Name] = SectionState{
			Values: sess.SectionValues(schema.Name),
			Errors: sess.SectionErrors(schema.Name),
		}
	}
	lists := map[string][]wizard.LineItem{}
	for _, schema := range sess.Def.Lists {
		lists[schema.Name] = sess.List(schema.Name)
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "state",
		RequestID: requestID,
		Data: StateData{
			ActiveStep:   sess.ActiveStep(),
			RemountToken: sess.RemountToken(),
			Initialized:  sess.Initialized(),
			Sections:     sections,
			Lists:        lists,
		},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
