package devserver

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devfolio-dev/folio/pkg/toast"
)

func (e *testEnv) dial(t *testing.T, session string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws/editor"
	if session != "" {
		url += "?session=" + session
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := expect(t, conn, TypeSession)
	if session != "" && hello.Session != session {
		t.Errorf("session = %q, want %q", hello.Session, session)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
}

func expect(t *testing.T, conn *websocket.Conn, typ string) Reply {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var r Reply
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatalf("ReadJSON() error: %v (waiting for %s)", err, typ)
	}
	if r.Type != typ {
		t.Fatalf("reply type = %q (%+v), want %q", r.Type, r, typ)
	}
	return r
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func equalRefs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEditorSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	stored := env.upload(t, "cat.png", pngBytes)
	conn := env.dial(t, "", nil)

	send(t, conn, Message{Type: TypeLoad, HTML: `<p>intro</p><img src="/uploads/old.png" data-ref="/uploads/old.png">`})
	fields := expect(t, conn, TypeFields)
	if !equalRefs(fields.Refs, []string{"/uploads/old.png"}) {
		t.Errorf("refs after load = %v, want [/uploads/old.png]", fields.Refs)
	}
	if !strings.Contains(fields.Fields, `value="/uploads/old.png"`) {
		t.Errorf("fields = %s, want a hidden input for /uploads/old.png", fields.Fields)
	}

	zero := 0
	send(t, conn, Message{Type: TypeInsertImage, Index: &zero})
	key := expect(t, conn, TypeInserted).Key
	if key == "" {
		t.Fatal("inserted key is empty")
	}
	fields = expect(t, conn, TypeFields)
	if len(fields.Refs) != 1 {
		t.Errorf("refs after placeholder = %v, want 1 entry", fields.Refs)
	}

	send(t, conn, Message{Type: TypeUpload, Key: key, Ref: stored})
	fields = expect(t, conn, TypeFields)
	// The placeholder sits before the existing image.
	if !equalRefs(fields.Refs, []string{stored, "/uploads/old.png"}) {
		t.Errorf("refs after upload = %v, want [%s /uploads/old.png]", fields.Refs, stored)
	}
	if !strings.Contains(fields.HTML, `data-recorded="true"`) {
		t.Errorf("html = %s, want the uploaded image marked recorded", fields.HTML)
	}

	send(t, conn, Message{Type: TypeSubmit})
	ev := expect(t, conn, TypeEvent)
	if ev.Name != toast.EventName {
		t.Errorf("event name = %q, want %q", ev.Name, toast.EventName)
	}
	payload, _ := ev.Payload.(map[string]any)
	if payload["level"] != string(toast.TypeWarning) || payload["message"] != "1 of 2 images could not be saved" {
		t.Errorf("toast payload = %v", ev.Payload)
	}
	saved := expect(t, conn, TypeSaved)
	if !equalRefs(saved.Values["images"], []string{stored, "/uploads/old.png"}) {
		t.Errorf("saved values = %v", saved.Values)
	}

	// The claimed upload survives cleanup.
	if n, err := env.disk.Cleanup(context.Background(), 0); err != nil || n != 0 {
		t.Errorf("Cleanup() = %d, %v; want 0 removed", n, err)
	}
}

func TestEditorSessionRemoval(t *testing.T) {
	env := newTestEnv(t, Config{})
	conn := env.dial(t, "", nil)

	send(t, conn, Message{Type: TypeLoad, HTML: `<p>a</p><img data-ref="x.png"><img data-ref="y.png">`})
	expect(t, conn, TypeFields)

	send(t, conn, Message{Type: TypeData, HTML: `<p>a</p><img data-ref="y.png">`})
	fields := expect(t, conn, TypeFields)
	if !equalRefs(fields.Refs, []string{"y.png"}) {
		t.Errorf("refs = %v, want [y.png]", fields.Refs)
	}
}

func TestEditorSessionRejections(t *testing.T) {
	env := newTestEnv(t, Config{MaxAttachments: 1})
	conn := env.dial(t, "", nil)

	tests := []struct {
		name string
		msg  Message
		code string
	}{
		{"unknown type", Message{Type: "paste"}, "E030"},
		{"late load", Message{Type: TypeLoad, HTML: "<p>x</p>"}, "E031"},
		{"unknown element", Message{Type: TypeUpload, Key: "missing", Ref: "a.png"}, "E012"},
		{"unknown parent", Message{Type: TypeInsertImage, Parent: "missing"}, "E012"},
	}
	for _, tt := range tests {
		send(t, conn, tt.msg)
		r := expect(t, conn, TypeError)
		if r.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.name, r.Code, tt.code)
		}
	}

	send(t, conn, Message{Type: TypeInsertImage})
	expect(t, conn, TypeInserted)
	expect(t, conn, TypeFields)

	send(t, conn, Message{Type: TypeInsertImage})
	if r := expect(t, conn, TypeError); r.Code != "E011" {
		t.Errorf("second image: code = %q, want E011", r.Code)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	if r := expect(t, conn, TypeError); r.Message != "invalid message" {
		t.Errorf("bad JSON: message = %q", r.Message)
	}
}

func TestEditorSessionReconnect(t *testing.T) {
	env := newTestEnv(t, Config{})
	first := env.dial(t, "draft-1", nil)
	env.dial(t, "draft-1", nil)

	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Error("replaced connection still open")
	}
	eventually(t, func() bool { return env.server.Sessions() == 1 })
}

func TestEditorSessionEviction(t *testing.T) {
	env := newTestEnv(t, Config{SessionCache: 1})
	first := env.dial(t, "a", nil)
	env.dial(t, "b", nil)

	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Error("evicted connection still open")
	}
	if got := env.server.Sessions(); got != 1 {
		t.Errorf("Sessions() = %d, want 1", got)
	}
}

func TestEditorSessionClosed(t *testing.T) {
	env := newTestEnv(t, Config{})
	conn := env.dial(t, "", nil)
	eventually(t, func() bool { return env.server.Sessions() == 1 })

	conn.Close()
	eventually(t, func() bool { return env.server.Sessions() == 0 })
}

func TestEditorOriginCheck(t *testing.T) {
	env := newTestEnv(t, Config{})
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws/editor"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	if err == nil {
		t.Fatal("Dial() from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}

	env.dial(t, "", http.Header{"Origin": {"http://localhost:5173"}})
}
