// Copyright 2026 The Sigstore APIs Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// rekorquery is a command line tool for querying a Rekor log and submitting
// entries to it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/client/rekor"
	"github.com/trailofbits/sigstore-apis/entry"
	"github.com/trailofbits/sigstore-apis/internal/config"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

var (
	rekorURL    = flag.String("rekor_url", "https://rekor.sigstore.dev", "Base URL of the log")
	httpTimeout = flag.Duration("http_timeout", 30*time.Second, "HTTP timeout for requests to the log")
)

const usage = `usage: rekorquery [flags] <command> [args]

commands:
  loginfo [--stable_size N]            print the state of the log
  entry (--index N | --uuid UUID)      print one entry
  search [--index N,...] [--uuid U,...] [--entry FILE,...]
                                       print the entries matching any selector
  submit [--legacy] FILE               submit the entry in FILE ("-" for stdin)
  proof --first N --last M [--tree_id ID]
                                       print a consistency proof
  publickey [--tree_id ID]             print the log's PEM public key
`

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	u, err := config.ParseServiceURL(*rekorURL)
	if err != nil {
		klog.Exitf("Invalid --rekor_url: %v", err)
	}
	c := rekor.NewClient(u, &http.Client{Timeout: *httpTimeout})
	ctx := context.Background()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var out any
	switch cmd {
	case "loginfo":
		out, err = logInfo(ctx, c, args)
	case "entry":
		out, err = getEntry(ctx, c, args)
	case "search":
		out, err = search(ctx, c, args)
	case "submit":
		out, err = submit(ctx, c, args)
	case "proof":
		out, err = proof(ctx, c, args)
	case "publickey":
		var pk []byte
		pk, err = publicKey(ctx, c, args)
		if err == nil {
			if _, err := os.Stdout.Write(pk); err != nil {
				klog.Exitf("Failed to write output: %v", err)
			}
			return
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		klog.Exitf("%s failed (%v): %v", cmd, status.Code(err), err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		klog.Exitf("Failed to write output: %v", err)
	}
}

func logInfo(ctx context.Context, c *rekor.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("loginfo", flag.ExitOnError)
	stable := fs.Int64("stable_size", 0, "Require the log to have at least this many entries")
	_ = fs.Parse(args)

	var opts []rekor.LogInfoOption
	if *stable > 0 {
		opts = append(opts, rekor.StableIndexHint(*stable))
	}
	return c.GetLogInfo(ctx, opts...)
}

func getEntry(ctx context.Context, c *rekor.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("entry", flag.ExitOnError)
	index := fs.Int64("index", -1, "Log index of the entry")
	uuid := fs.String("uuid", "", "UUID of the entry")
	_ = fs.Parse(args)

	switch {
	case *uuid != "" && *index >= 0:
		return nil, errors.New("only one of --index and --uuid may be given")
	case *uuid != "":
		return withEntry(c.GetLogEntryByUUID(ctx, *uuid))
	case *index >= 0:
		return withEntry(c.GetLogEntryByIndex(ctx, *index))
	}
	return nil, errors.New("one of --index and --uuid is required")
}

func search(ctx context.Context, c *rekor.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	indexes := fs.String("index", "", "Comma separated log indexes")
	uuids := fs.String("uuid", "", "Comma separated UUIDs")
	files := fs.String("entry", "", "Comma separated files, each holding a proposed entry")
	_ = fs.Parse(args)

	var q api.SearchLogQuery
	for _, s := range splitList(*indexes) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %v", s, err)
		}
		q.LogIndexes = append(q.LogIndexes, i)
	}
	q.EntryUUIDs = splitList(*uuids)
	for _, f := range splitList(*files) {
		e, err := readEntry(f, false)
		if err != nil {
			return nil, err
		}
		q.Entries = append(q.Entries, e)
	}
	les, err := c.SearchLogQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]entryOutput, 0, len(les))
	for i := range les {
		out = append(out, newEntryOutput(&les[i]))
	}
	return out, nil
}

func submit(ctx context.Context, c *rekor.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	legacy := fs.Bool("legacy", false, "The file holds an entry without a kind, which is inferred from its spec")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return nil, errors.New("exactly one FILE is required")
	}
	e, err := readEntry(fs.Arg(0), *legacy)
	if err != nil {
		return nil, err
	}
	le, err := c.CreateLogEntry(ctx, e)
	if errors.Is(err, api.ErrAlreadyExists) {
		var ae *api.Error
		if errors.As(err, &ae) && ae.Subject != "" {
			klog.Infof("Entry already in the log as %s", ae.Subject)
			return withEntry(c.GetLogEntryByUUID(ctx, ae.Subject))
		}
	}
	return withEntry(le, err)
}

func proof(ctx context.Context, c *rekor.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("proof", flag.ExitOnError)
	first := fs.Int64("first", 0, "Smaller tree size")
	last := fs.Int64("last", 0, "Larger tree size")
	treeID := fs.String("tree_id", "", "Shard to prove, or empty for the active shard")
	_ = fs.Parse(args)
	return c.GetLogProof(ctx, *first, *last, *treeID)
}

func publicKey(ctx context.Context, c *rekor.Client, args []string) ([]byte, error) {
	fs := flag.NewFlagSet("publickey", flag.ExitOnError)
	treeID := fs.String("tree_id", "", "Shard whose key to fetch, or empty for the active shard")
	_ = fs.Parse(args)
	return c.GetPublicKey(ctx, *treeID)
}

// entryOutput is a LogEntry with its body decoded, when possible.
type entryOutput struct {
	UUID  string               `json:"uuid"`
	Kind  entry.Kind           `json:"kind,omitempty"`
	Entry *api.LogEntry        `json:"entry"`
	Body  *entry.ProposedEntry `json:"body,omitempty"`
}

func newEntryOutput(le *api.LogEntry) entryOutput {
	o := entryOutput{UUID: le.UUID, Entry: le}
	if e, err := le.Entry(); err != nil {
		klog.Warningf("Entry %s has a body which cannot be decoded: %v", le.UUID, err)
	} else {
		o.Kind = e.Kind()
		o.Body = &e
	}
	return o
}

func withEntry(le *api.LogEntry, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return newEntryOutput(le), nil
}

func readEntry(path string, legacy bool) (entry.ProposedEntry, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return entry.ProposedEntry{}, fmt.Errorf("failed to read %q: %v", path, err)
	}
	if legacy {
		return entry.DecodeLegacy(raw)
	}
	return entry.Unmarshal(raw)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
