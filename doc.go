// Package flakedb provides the storage core of a semantic graph database:
// content-addressed block storage over interchangeable backends, plus the
// connection facade and index-node resolver the higher layers build on.
//
// Every persisted artifact (commit, transaction, index segment) is hashed
// over its canonical bytes and written under a path derived from that hash,
// so index nodes can reference children purely by content and any backend
// can serve any address it once produced.
//
// Basic usage (in-memory backend):
//
//	conn, _ := flakedb.Connect()
//
//	// Persist a commit for a ledger branch
//	rec, _ := conn.WriteCommit(ctx, flakedb.Ledger{Alias: "L1", Branch: "main"}, commitData)
//	fmt.Println(rec.Address) // fluree:memory://L1/main/commit/<sha256>.json
//
//	// Read it back
//	data, _ := conn.ReadCommit(ctx, rec.Address)
//
//	// Resolve index nodes through the bounded cache
//	node, _ := conn.ResolveIndexNode(ctx, ref)
//
//	conn.Close()
//
// Other backends have their own constructors:
//
//	conn, _ := flakedb.ConnectFile(dir)
//	conn, _ := flakedb.ConnectS3(ctx, "my-bucket", "blocks")
//	conn, _ := flakedb.ConnectRemote(ctx, []string{"http://10.0.0.5:8090"})
package flakedb
