// Package cli implements the commands of the replica client.
package cli

import (
	"github.com/iudanet/notex/internal/client/iocli"
	"github.com/iudanet/notex/internal/client/storage"
	"github.com/iudanet/notex/internal/client/sync"
)

// Cli связывает команды с сервисом синхронизации и локальной репликой
type Cli struct {
	io          iocli.IO
	syncService sync.Service
	replica     storage.ReplicaStorage
}

// New creates a command runner
func New(io iocli.IO, syncService sync.Service, replica storage.ReplicaStorage) *Cli {
	return &Cli{
		io:          io,
		syncService: syncService,
		replica:     replica,
	}
}

// PrintUsage prints the command reference
func PrintUsage(out iocli.IO) {
	out.Println("Notex Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  notex [OPTIONS] COMMAND")
	out.Println()
	out.Println("Options:")
	out.Println("  -version                Show version information")
	out.Println("  -server URL             Server URL (default: http://localhost:8080, env NOTEX_SERVER)")
	out.Println("  -db PATH                Path to local replica (default: notex-client.db, env NOTEX_CLIENT_DB)")
	out.Println("  -page-size N            Entries per sync request (default: server page size)")
	out.Println("  -log-level LEVEL        debug, info, warn or error (default: warn)")
	out.Println()
	out.Println("Commands:")
	out.Println("  sync                    Pull changes until the replica is up to date")
	out.Println("  watch                   Sync now and after every change notification")
	out.Println("  status                  Show watermark and replica counts")
	out.Println("  list <kind>             List replicated resources (notebooks, notes, blocks)")
	out.Println("  get <kind> <id>         Show a resource or its tombstone")
	out.Println()
	out.Println("Examples:")
	out.Println("  notex sync")
	out.Println("  notex -server http://notes.example.com:8080 watch")
	out.Println("  notex list notes")
	out.Println("  notex get notebook 1")
}
