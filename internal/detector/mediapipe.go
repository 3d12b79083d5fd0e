package detector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// idleShutdown is how long the service process may sit unused before it is stopped.
	idleShutdown = 30 * time.Second

	// DefaultResponseTimeout bounds one frame round trip to the service.
	DefaultResponseTimeout = 5 * time.Second
)

// ErrServiceDown is returned when the service process died, stalled or broke
// the protocol. The process has been stopped; the next Detect restarts it.
var ErrServiceDown = errors.New("mediapipe service down")

var errMalformedResponse = errors.New("malformed response")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are sent as a 4-byte big-endian length followed by JPEG bytes; the
// service answers with one JSON line per frame: {"hands":[{"points":[...],...}]}.
type MediaPipeDetector struct {
	config    Config
	script    string
	python    string
	timeout   time.Duration
	log       *logrus.Entry
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log *logrus.Entry) (*MediaPipeDetector, error) {
	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found")
	}

	return &MediaPipeDetector{
		config:  config,
		script:  scriptPath,
		python:  findVenvPython(),
		timeout: DefaultResponseTimeout,
		log:     log,
	}, nil
}

// Detect analyzes a frame and returns detected hand poses.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandPose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return d.roundTrip(buf.GetBytes())
}

// roundTrip sends one encoded frame and reads the service's answer. Any
// transport failure kills the process and returns ErrServiceDown.
func (d *MediaPipeDetector) roundTrip(data []byte) ([]HandPose, error) {
	if err := d.ensureStarted(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceDown, err)
	}

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, d.fail(fmt.Errorf("write length: %w", err))
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, d.fail(fmt.Errorf("write data: %w", err))
	}

	line, err := d.readLine()
	if err != nil {
		return nil, d.fail(err)
	}

	hands, err := decodeResponse(line)
	if errors.Is(err, errMalformedResponse) {
		return nil, d.fail(err)
	}
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return hands, nil
}

type readResult struct {
	line []byte
	err  error
}

// readLine reads one response line, giving up after d.timeout.
func (d *MediaPipeDetector) readLine() ([]byte, error) {
	out := make(chan readResult, 1)
	stdout := d.stdout
	go func() {
		line, err := stdout.ReadBytes('\n')
		out <- readResult{line, err}
	}()

	timeout := d.timeout
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-out:
		if res.err != nil {
			return nil, fmt.Errorf("read response: %w", res.err)
		}
		return res.line, nil
	case <-timer.C:
		return nil, fmt.Errorf("no response within %v", timeout)
	}
}

// fail kills the service after a transport error so the next frame starts
// a fresh process.
func (d *MediaPipeDetector) fail(cause error) error {
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	if err := d.shutdown(); err != nil {
		d.log.WithError(err).Debug("mediapipe service exited")
	}
	d.log.WithError(cause).Warn("mediapipe service failed")
	return fmt.Errorf("%w: %v", ErrServiceDown, cause)
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// args renders the detection knobs as service flags.
func (d *MediaPipeDetector) args() []string {
	return []string{
		d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.python
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		d.cmd = nil
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.log.WithFields(logrus.Fields{
		"python":    pythonPath,
		"max_hands": d.config.MaxHands,
	}).Info("mediapipe service started")
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Info("mediapipe service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// wireResponse is the JSON line emitted by the Python service.
type wireResponse struct {
	Hands []HandPose `json:"hands"`
	Error string     `json:"error,omitempty"`
}

// decodeResponse parses one service line. Point counts are passed through
// untouched so a model/core mismatch surfaces in the extractor.
func decodeResponse(line []byte) ([]HandPose, error) {
	var resp wireResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}
	return resp.Hands, nil
}
