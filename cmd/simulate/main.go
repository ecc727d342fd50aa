// Offline trace tool: runs the resolution engine against sample phrases
// without the HTTP layer. Useful when tuning vocabulary weights.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"

	"github.com/segovia241/ia-erp-universal/internal/repository/file"
	"github.com/segovia241/ia-erp-universal/internal/repository/memory"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/orchestrator"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

var samplePhrases = []string{
	"listar pacientes",
	"buscar paciente Juan Perez",
	"crear cliente nombre ACME monto 500",
	"crear cliente",
	"eliminar factura numero 42",
	"cuentame un chiste",
}

func main() {
	vocabPath := flag.String("vocabulary", "configs/vocabulary.json", "vocabulary config path")
	catalogPath := flag.String("catalog", "configs/endpoints.json", "endpoint catalog path")
	flag.Parse()

	cfg, err := vocabulary.LoadFile(*vocabPath)
	if err != nil {
		log.Fatalf("load vocabulary: %v", err)
	}
	index, err := vocabulary.NewIndex(cfg)
	if err != nil {
		log.Fatalf("compile vocabulary: %v", err)
	}
	catalog, err := file.NewCatalogRepository(*catalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	store := memory.NewSessionRepository(15*time.Minute, 5*time.Minute)
	defer store.Close()

	engine := orchestrator.New(index, catalog, store)

	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	pending := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	phrases := flag.Args()
	if len(phrases) == 0 {
		phrases = samplePhrases
	}

	for _, phrase := range phrases {
		header.Printf("\n> %s\n", phrase)

		result, err := engine.Resolve(context.Background(), phrase, "", nil, "demo")
		if err != nil {
			fail.Printf("  rejected: %v\n", err)
			continue
		}
		if result.Pending != nil {
			pending.Printf("  awaiting parameters (session %s)\n", result.Pending.SessionID)
			for _, m := range result.Pending.Missing {
				pending.Printf("    - %s (%s): %s\n", m.Name, m.Type, m.Description)
			}
			fmt.Printf("  prompt: %s\n", result.Pending.Prompt)
			continue
		}
		r := result.Resolved
		ok.Printf("  %s %s  [%s/%s]  confidence=%.2f\n", r.HTTPMethod, r.Route, r.Module, r.Action, r.Confidence)
		for k, v := range r.Payload {
			fmt.Printf("    %s = %v\n", k, v)
		}
	}
}
