package testutils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

func UseTempFile(data string, f func(path string)) {
	file, err := os.CreateTemp("", "*.txt")
	if err != nil {
		panic(fmt.Errorf("couldn't create temp file: %s", err))
	}
	_, err = file.WriteString(data)
	if err != nil {
		panic(fmt.Errorf("couldn't write to temp file: %s", err))
	}
	_ = file.Close()
	filePath := file.Name()
	defer func() {
		err := os.Remove(filePath)
		if err != nil {
			log.Printf("couldn't delete temp file %s: %s", filePath, err)
		}
	}()
	f(filePath)
}

func WriteIntoFile(path string, data string) {
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		panic(err)
	}
}

func ReadFile(path string) string {
	d, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return string(d)
}

// RespondJSON writes v as the JSON body of a mocked API response.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes the body of a request received by a mocked API.
func ReadJSON(r *http.Request, v interface{}) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		panic(fmt.Errorf("couldn't decode request body: %s", err))
	}
}
