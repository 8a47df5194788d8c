/*
Package record turns decrypted server responses into the record, file and
folder object graph.

# Key hierarchy

Every layer of the response is encrypted under a different key:

	app key
	 ├─ record key   (GCM)  → record data (GCM), file keys (GCM)
	 │                         └─ file key → file metadata / body (GCM)
	 └─ shared folder key (GCM)
	     ├─ record key of folder records (GCM)
	     └─ sub-folder key (CBC) → sub-sub-folder key (CBC) → ...

Top-level records carry their record key wrapped under the app key; a
record inside a shared folder carries it wrapped under that folder's key;
an envelope with no record key at all means the context key IS the record
key (single-record share). Sub-folder keys are the one place the protocol
uses CBC wrapping, and folder data payloads are CBC as well - this
asymmetry is part of the wire format and is preserved here.

# Failure policy

One undecodable record or folder does not fail the fetch: the entry is
dropped with an ERROR log (and counted in ksm_records_dropped_total), and
the rest of the response is returned. Duplicate record UIDs within one
response are dropped the same way. Hard failures (response is not JSON)
surface as errors.

# Entry points

ParseResponse parses the decrypted transport plaintext into envelope
structs. DecodeSecrets walks the envelopes with the app key and returns
the surviving records and folders. DecodeRecord / DecodeAppData are the
single-object forms used by the client during binding and re-fetch.
*/
package record
