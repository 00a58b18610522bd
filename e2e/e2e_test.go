package e2e

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/keypose"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/store"
)

// userBody maps a preset pose onto a taller user standing off-centre.
func userBody(p pose.Pose) pose.Pose {
	return pose.Transform(p, 1.3, geometry.Point3{X: 50, Y: 20})
}

func post(t *testing.T, client *http.Client, url string, body any, out any) int {
	t.Helper()

	var data []byte
	switch b := body.(type) {
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(b); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestE2E_RecordImportCoach(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	// A coach records a workout with their own body.
	rec := keypose.NewRecorder("bodyweight squat")
	if err := rec.Calibrate(userBody(pose.StandingPose())); err != nil {
		t.Fatalf("recorder calibrate: %v", err)
	}
	if err := rec.Record("standing", userBody(pose.StandingPose())); err != nil {
		t.Fatalf("record standing: %v", err)
	}
	if err := rec.Record("bottom", userBody(pose.SquatPose())); err != nil {
		t.Fatalf("record bottom: %v", err)
	}
	workoutPath := filepath.Join(tmpDir, "squat.json")
	if err := rec.FinalizeFile(workoutPath); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := app.DefaultConfig()
	cfg.Store = s
	ts := httptest.NewServer(server.New(server.Config{App: app.New(cfg)}))
	defer ts.Close()
	client := ts.Client()

	data, err := os.ReadFile(workoutPath)
	if err != nil {
		t.Fatalf("read workout: %v", err)
	}

	var workout struct {
		ID string `json:"id"`
	}
	t.Run("ImportWorkout", func(t *testing.T) {
		if code := post(t, client, ts.URL+"/api/workouts", data, &workout); code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", code, http.StatusCreated)
		}
	})

	var sess app.SessionInfo
	post(t, client, ts.URL+"/api/sessions", map[string]string{"profile": "coach"}, &sess)
	base := ts.URL + "/api/sessions/" + sess.ID

	t.Run("CalibrateAndSelect", func(t *testing.T) {
		if code := post(t, client, base+"/calibrate", map[string]any{"pose": userBody(pose.StandingPose())}, nil); code != http.StatusOK {
			t.Fatalf("calibrate status = %d", code)
		}
		if code := post(t, client, base+"/workout", map[string]string{"workout_id": workout.ID}, nil); code != http.StatusOK {
			t.Fatalf("workout status = %d", code)
		}
		if code := post(t, client, base+"/segment", map[string]int{"start": 0, "end": 1}, nil); code != http.StatusOK {
			t.Fatalf("segment status = %d", code)
		}
	})

	t.Run("AnalyzeRecordedBody", func(t *testing.T) {
		var bottom app.Report
		if code := post(t, client, base+"/analyze", map[string]any{"pose": userBody(pose.SquatPose())}, &bottom); code != http.StatusOK {
			t.Fatalf("analyze status = %d", code)
		}
		if math.Abs(bottom.Progress-1) > 1e-6 || math.Abs(bottom.Similarity-1) > 1e-6 {
			t.Errorf("bottom: progress %v similarity %v, want 1 and 1", bottom.Progress, bottom.Similarity)
		}

		var top app.Report
		post(t, client, base+"/analyze", map[string]any{"pose": userBody(pose.StandingPose())}, &top)
		if top.Progress >= bottom.Progress {
			t.Errorf("standing progress %v should be below bottom progress %v", top.Progress, bottom.Progress)
		}
		if len(top.Hints) == 0 {
			t.Error("standing at the bottom target should produce hints")
		}
	})

	t.Run("LiveStream", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(base, "http") + "/live?smart=true&mode=exercise"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial error = %v", err)
		}
		defer conn.Close()

		frame := userBody(pose.SquatPose())
		frame.Timestamp = 10
		if err := conn.WriteJSON(frame); err != nil {
			t.Fatalf("write error = %v", err)
		}

		var msg struct {
			Report *app.Report `json:"report"`
			Error  string      `json:"error"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read error = %v", err)
		}
		if msg.Report == nil || !msg.Report.Reanchored {
			t.Fatalf("expected a re-anchored report, got %+v", msg)
		}
		if math.Abs(msg.Report.Progress-1) > 1e-6 {
			t.Errorf("live progress = %v, want 1", msg.Report.Progress)
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	t.Run("ReturningProfileIsCalibrated", func(t *testing.T) {
		var again app.SessionInfo
		post(t, client, ts.URL+"/api/sessions", map[string]string{"profile": "coach"}, &again)
		if !again.Calibrated {
			t.Error("returning profile should reuse its stored calibration")
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		var health struct {
			Metrics struct {
				FramesAnalyzed int64 `json:"frames_analyzed"`
				SmartAnalyses  int64 `json:"smart_analyses"`
			} `json:"metrics"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		if health.Metrics.FramesAnalyzed < 3 || health.Metrics.SmartAnalyses < 1 {
			t.Errorf("unexpected metrics: %+v", health.Metrics)
		}
	})
}
