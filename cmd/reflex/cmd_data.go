package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// cmdData manages the full analytics document
func cmdData(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'reflex start' first)")
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: reflex data <export|import|reset>")
	}

	switch args[0] {
	case "export":
		return cmdDataExport()
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("usage: reflex data import <file>")
		}
		return cmdDataImport(args[1])
	case "reset":
		return cmdDataReset()
	default:
		return fmt.Errorf("unknown data command: %s (valid: export, import, reset)", args[0])
	}
}

func cmdDataExport() error {
	resp, err := http.Get(daemonAddr + "/v1/data/export")
	if err != nil {
		return fmt.Errorf("export data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	_, err = io.Copy(os.Stdout, resp.Body)
	return err
}

func cmdDataImport(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	resp, err := http.Post(daemonAddr+"/v1/data/import", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Println("Data imported")
	return nil
}

func cmdDataReset() error {
	fmt.Print("This deletes all recorded games. Continue? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(answer)) != "y" {
		fmt.Println("Aborted")
		return nil
	}

	resp, err := http.Post(daemonAddr+"/v1/data/reset", "application/json", nil)
	if err != nil {
		return fmt.Errorf("reset data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return daemonError(resp)
	}
	fmt.Println("All analytics data deleted")
	return nil
}
