package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// cmdSettings manages the analytics settings document through the daemon
func cmdSettings(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'reflex start' first)")
	}

	subCmd := "show"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "show", "":
		return cmdSettingsShow()
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: reflex settings set '<json patch>'")
		}
		return cmdSettingsSet(args[1])
	case "preset":
		if len(args) < 2 {
			return fmt.Errorf("usage: reflex settings preset <minimal|balanced|detailed>")
		}
		return cmdSettingsPreset(args[1])
	case "reset":
		return cmdSettingsReset()
	case "export":
		return cmdSettingsExport()
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("usage: reflex settings import <file>")
		}
		return cmdSettingsImport(args[1])
	default:
		return fmt.Errorf("unknown settings command: %s (valid: show, set, preset, reset, export, import)", subCmd)
	}
}

func cmdSettingsShow() error {
	resp, err := http.Get(daemonAddr + "/v1/settings")
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}
	defer resp.Body.Close()
	return printIndented(resp.Body)
}

func cmdSettingsSet(patch string) error {
	req, err := http.NewRequest(http.MethodPatch, daemonAddr+"/v1/settings", strings.NewReader(patch))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("patch settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Println("Settings updated")
	return nil
}

func cmdSettingsPreset(name string) error {
	resp, err := http.Post(daemonAddr+"/v1/settings/presets/"+name, "application/json", nil)
	if err != nil {
		return fmt.Errorf("apply preset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Printf("Applied preset %q\n", name)
	return nil
}

func cmdSettingsReset() error {
	resp, err := http.Post(daemonAddr+"/v1/settings/reset", "application/json", nil)
	if err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Println("Settings reset to defaults")
	return nil
}

func cmdSettingsExport() error {
	resp, err := http.Get(daemonAddr + "/v1/settings/export")
	if err != nil {
		return fmt.Errorf("export settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	_, err = io.Copy(os.Stdout, resp.Body)
	return err
}

func cmdSettingsImport(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	resp, err := http.Post(daemonAddr+"/v1/settings/import", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("import settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Println("Settings imported")
	return nil
}

func printIndented(body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

func daemonError(resp *http.Response) error {
	var failure struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&failure)
	if failure.Details != "" {
		return fmt.Errorf("%s: %s", failure.Error, failure.Details)
	}
	return fmt.Errorf("%s", failure.Error)
}
