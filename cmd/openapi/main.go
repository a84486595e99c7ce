// openapi serves and validates the railwatch HTTP API contract.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: openapi <command>")
		fmt.Println("Commands:")
		fmt.Println("  serve    - Serve the API contract and Swagger UI")
		fmt.Println("  validate - Validate the OpenAPI specification")
		fmt.Println("  info     - Print a summary of the specification")
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "serve":
		serveDocumentation()
	case "validate":
		validateSpec()
	case "info":
		printInfo()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func serveDocumentation() {
	router := mux.NewRouter()

	router.HandleFunc("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		spec, err := loadSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(spec)
	})

	router.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		data, err := os.ReadFile(specPath())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	})

	router.HandleFunc("/docs", func(w http.ResponseWriter, _ *http.Request) {
		html := `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>railwatch API Documentation</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/openapi.json",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout"
            });
        }
    </script>
</body>
</html>
`
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status": "ok", "server": "railwatch-openapi"}`)
	})

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
	})

	port := os.Getenv("OPENAPI_PORT")
	if port == "" {
		port = "8081"
	}

	fmt.Printf("Serving API documentation at http://localhost:%s/docs\n", port)
	srv := &http.Server{Addr: ":" + port, Handler: router, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
	log.Fatal(srv.ListenAndServe())
}

func validateSpec() {
	doc, err := loadSpec()
	if err != nil {
		fmt.Printf("Error loading spec: %v\n", err)
		os.Exit(1)
	}

	if err := doc.Validate(openapi3.NewLoader().Context); err != nil {
		fmt.Printf("Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ OpenAPI specification is valid")

	fmt.Printf("\nAPI Statistics:\n")
	fmt.Printf("- Paths: %d\n", doc.Paths.Len())
	fmt.Printf("- Schemas: %d\n", len(doc.Components.Schemas))
	fmt.Printf("- Operations: %d\n", countOperations(doc))
}

func printInfo() {
	doc, err := loadSpec()
	if err != nil {
		fmt.Printf("Error loading spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s %s\n", doc.Info.Title, doc.Info.Version)
	if doc.Info.Description != "" {
		fmt.Println(doc.Info.Description)
	}
	fmt.Println("\nPaths:")
	for _, path := range doc.Paths.InMatchingOrder() {
		item := doc.Paths.Value(path)
		for method, op := range item.Operations() {
			fmt.Printf("  %-6s %-42s %s\n", method, path, op.Summary)
		}
	}
}

func specPath() string {
	if envPath := os.Getenv("OPENAPI_SPEC_PATH"); envPath != "" {
		return envPath
	}
	return "api/openapi.yaml"
}

func loadSpec() (*openapi3.T, error) {
	data, err := os.ReadFile(specPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	// Parse YAML to JSON
	var specData interface{}
	if err := yaml.Unmarshal(data, &specData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	jsonData, err := json.Marshal(specData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	return doc, nil
}

func countOperations(doc *openapi3.T) int {
	count := 0
	for _, pathItem := range doc.Paths.Map() {
		count += len(pathItem.Operations())
	}
	return count
}
