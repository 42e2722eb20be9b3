//
// Copyright (c) 2023-2025 Markku Rossi
//
// All rights reserved.
//

// Command sepilinker runs one side of a two-party secure record-linkage
// session: the server offers a database, the client offers a single
// record, and the two sides jointly compute an EpiLink match decision
// without either side learning the other's raw field values.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/driver"
	"github.com/markkurossi/sepilinker/epilinkio"
)

func main() {
	role := flag.String("role", "", "protocol role: client or server")
	peer := flag.String("peer", "", "remote host to dial (client only)")
	port := flag.String("port", "", "TCP port to listen on or dial (overrides SEPILINKER_PORT)")
	configPath := flag.String("config", "", "epilink field/threshold configuration (JSON)")
	circuitDir := flag.String("circuits", ".", "directory holding prebuilt divider circuits")
	inputPath := flag.String("input", "", "client record or server database (JSON)")
	bitlen := flag.Int("bitlen", config.DefaultBitlen, "ring/circuit bit width")
	nthreads := flag.Int("threads", 1, "OT/garbling worker count")
	fCount := flag.Bool("count", false, "run run_count instead of a linkage query")
	fDebug := flag.Bool("d", false, "reveal the winning quotient alongside the match decision")
	fVerbose := flag.Bool("v", false, "verbose output")
	fStats := flag.Bool("stats", false, "print gate-count statistics after the run")
	fMatchingMode := flag.Bool("matching-mode", false, "reveal match/tmatch to both parties (index stays secret-shared)")
	fUseConversion := flag.Bool("use-conversion", false, "multiply in arithmetic space, converting to Boolean at field boundaries")
	flag.Parse()

	log.SetFlags(0)
	if !*fVerbose {
		log.SetOutput(os.Stderr)
	}

	var r driver.Role
	switch *role {
	case "client":
		r = driver.Client
	case "server":
		r = driver.Server
	default:
		log.Fatalf("sepilinker: -role must be client or server, got %q", *role)
	}
	if r == driver.Client && *peer == "" {
		log.Fatal("sepilinker: -peer is required in client mode")
	}

	epilink, err := loadEpilinkConfig(*configPath)
	if err != nil {
		log.Fatalf("sepilinker: %v", err)
	}
	cc, err := config.NewCircuitConfig(epilink, *fMatchingMode, *bitlen)
	if err != nil {
		log.Fatalf("sepilinker: %v", err)
	}
	cc.UseConversion = *fUseConversion

	cfg := driver.NewConfig(r, *peer, *nthreads, *bitlen)
	if *port != "" {
		cfg.Port = ":" + *port
	}
	cfg.CircuitDir = *circuitDir

	d := driver.New(cfg, cc)
	log.Printf("sepilinker %s node", r)
	if err := d.Connect(); err != nil {
		log.Fatalf("sepilinker: connect: %v", err)
	}
	if err := d.RunSetupPhase(); err != nil {
		log.Fatalf("sepilinker: setup: %v", err)
	}

	switch r {
	case driver.Client:
		record, err := loadRecord(*inputPath)
		if err != nil {
			log.Fatalf("sepilinker: %v", err)
		}
		if err := runClient(d, record, *fCount, *fDebug); err != nil {
			log.Fatalf("sepilinker: %v", err)
		}
	case driver.Server:
		db, err := loadDatabase(*inputPath)
		if err != nil {
			log.Fatalf("sepilinker: %v", err)
		}
		if err := runServer(d, db, *fCount, *fDebug); err != nil {
			log.Fatalf("sepilinker: %v", err)
		}
	}

	if *fStats {
		if err := d.PrintStats(os.Stdout); err != nil {
			log.Printf("sepilinker: stats: %v", err)
		}
	}
}

func runClient(d driver.LinkageRunner, record epilinkio.Record, count, debug bool) error {
	if count {
		// databaseSize must already be agreed with the server out of
		// band (e.g. published alongside -peer/-port); run_count's
		// column widths depend on it.
		size, err := databaseSizeFromEnv()
		if err != nil {
			return err
		}
		res, err := d.RunCount(record, nil, size)
		if err != nil {
			return err
		}
		fmt.Printf("matches=%d tmatches=%d\n", res.Matches, res.TMatches)
		return nil
	}

	size, err := databaseSizeFromEnv()
	if err != nil {
		return err
	}
	res, err := d.RunAsClient(record, size, debug)
	if err != nil {
		return err
	}
	printLinkageResult(res)
	return nil
}

func runServer(d driver.LinkageRunner, db epilinkio.Database, count, debug bool) error {
	if count {
		size, err := db.Size()
		if err != nil {
			return err
		}
		res, err := d.RunCount(nil, db, size)
		if err != nil {
			return err
		}
		fmt.Printf("matches=%d tmatches=%d\n", res.Matches, res.TMatches)
		return nil
	}
	res, err := d.RunAsServer(db, debug)
	if err != nil {
		return err
	}
	printLinkageResult(res)
	return nil
}

func printLinkageResult(res *driver.LinkageResult) {
	if res.IndexRevealed {
		fmt.Printf("index=%d\n", res.Index)
	} else {
		fmt.Println("index=<secret-shared>")
	}
	if res.MatchRevealed {
		fmt.Printf("match=%v tmatch=%v\n", res.Match, res.TMatch)
	} else {
		fmt.Println("match=<secret-shared> tmatch=<secret-shared>")
	}
	if res.Num != nil {
		fmt.Printf("score=%s/%s\n", res.Num, res.Den)
	}
}

func databaseSizeFromEnv() (int, error) {
	v := os.Getenv("SEPILINKER_DATABASE_SIZE")
	if v == "" {
		return 0, fmt.Errorf("SEPILINKER_DATABASE_SIZE must be set in client mode")
	}
	var size int
	if _, err := fmt.Sscanf(v, "%d", &size); err != nil {
		return 0, fmt.Errorf("invalid SEPILINKER_DATABASE_SIZE: %w", err)
	}
	return size, nil
}

func loadEpilinkConfig(path string) (*config.EpilinkConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("-config is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg config.EpilinkConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

func loadRecord(path string) (epilinkio.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("-input is required in client mode")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var raw map[string]string
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return epilinkio.RecordFromHex(raw)
}

func loadDatabase(path string) (epilinkio.Database, error) {
	if path == "" {
		return nil, fmt.Errorf("-input is required in server mode")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var raw map[string][]string
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return epilinkio.DatabaseFromHex(raw)
}
