// Spamsum prints the fuzzy hash of each file named on its command line.
// A path of - reads standard input; it may appear only once.
//
// Flags may also come from a YAML file given with --config or the
// SPAMSUM_CONFIG environment variable; flags that are set explicitly win.
//
// Exit codes:
//
//	0  every file was hashed
//	1  at least one file could not be read or hashed (the rest are printed)
//	2  usage or configuration error
package main
