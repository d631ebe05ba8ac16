//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const e2eAPIKey = "e2e-test-api-key"

// snsreportServer manages a running snsreport server process.
type snsreportServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	logFile *os.File
}

// startServer launches the binary on a fresh data directory and waits for
// it to become healthy.
func startServer(t *testing.T) *snsreportServer {
	t.Helper()
	return startServerIn(t, t.TempDir())
}

// startServerIn launches the binary over dataDir. It is configured entirely
// via environment variables.
func startServerIn(t *testing.T, dataDir string) *snsreportServer {
	t.Helper()
	requireSNSReport(t)

	port := freePort(t)
	cmd := exec.Command(snsreportBin, "serve")
	cmd.Env = append(serverEnv(dataDir),
		fmt.Sprintf("SNSREPORT_PORT=%d", port),
		"SNSREPORT_API_KEY="+e2eAPIKey,
	)

	lf, err := os.OpenFile(filepath.Join(dataDir, "snsreport.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start snsreport: %v", err)
	}

	s := &snsreportServer{
		cmd:     cmd,
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		logFile: lf,
	}
	t.Cleanup(s.stop)

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("snsreport not healthy: %v", err)
	}
	return s
}

// serverEnv is the environment shared by server and CLI runs over dataDir.
func serverEnv(dataDir string) []string {
	return append(os.Environ(),
		"SNSREPORT_DB_PATH="+filepath.Join(dataDir, "snsreport.db"),
		"SNSREPORT_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"SNSREPORT_ARCHIVE_BUCKET=",
		"OPENAI_API_KEY=",
	)
}

// stop interrupts the process and waits for it to exit.
func (s *snsreportServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
	s.logFile.Close()
}

// restartOnSameData stops the server and starts a new one over the same
// data directory.
func (s *snsreportServer) restartOnSameData(t *testing.T) *snsreportServer {
	t.Helper()
	s.stop()
	return startServerIn(t, s.dataDir)
}

func (s *snsreportServer) baseURL() string {
	return "http://" + s.address + "/api/v1"
}

func (s *snsreportServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(s.baseURL() + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("snsreport not healthy after %s", timeout)
}

// do sends an authenticated JSON request and decodes a JSON reply into out
// when out is non-nil. It returns the status code.
func (s *snsreportServer) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, s.baseURL()+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+e2eAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if out != nil && len(data) > 0 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode %s %s reply %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

// cli runs an offline subcommand over the server's data directory.
func (s *snsreportServer) cli(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(snsreportBin, args...)
	cmd.Env = serverEnv(s.dataDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// freePort returns a free TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
