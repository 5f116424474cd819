// Package cli provides the interactive TradeHub command-line client.
//
// It wires configuration, the local database, the service adapter and the
// state containers behind a REPL. On start it restores the last session,
// starts a background connectivity watcher and executes user commands until
// the user exits.
//
// Commands:
//   - register / login / logout / deleteaccount
//   - profile / editprofile
//   - add, list [category], mine, find <expr>, show <id>, edit <id>, delete <id>
//   - watch [category] / unwatch for live updates of the listing
//   - wish, wishadd, wishdel <id> for the local wishlist
package cli
