/*
Package types defines the data model of the KSM client: decrypted records,
files and folders, the wire payload shapes, the region alias table, and
the field-type allowlist.

# Records

A Record is the fully decrypted form of a server record envelope. The
record data is kept both as the parsed RecordDict (a generic JSON object
with "fields" and "custom" arrays) and as the exact RawJSON blob, so an
update that changes nothing re-encrypts byte-identical plaintext. Field
accessors (FieldByType, FieldByLabel, CustomFieldByType, FieldValue)
operate on the dict; SetFieldValue and SetPassword mutate it in place for
a subsequent update call.

Key material (RecordKey, FolderKey, file keys) lives on the structs only
as long as the object graph does; Zeroize overwrites it when a record is
discarded.

# Files and folders

KeeperFile holds decrypted metadata plus the file key; the body itself
stays in object storage behind Url until downloaded, then is cached on the
struct. Folder carries the decrypted name and the folder key. Top-level
folder keys are wrapped with the app key using AES-GCM; sub-folder keys
with the parent folder key using AES-CBC - the decode layer preserves that
asymmetry.

# Wire shapes

The *Payload structs serialize to the camelCase JSON the server expects;
the *Envelope and *Response structs mirror what it returns. ServerError is
the body of any non-200 reply; its key_id arrives as either a string or a
number, which FlexibleID absorbs.

# Validation

ValidateTemplate gates create calls: non-empty title, every field type in
the 44-name allowlist, every field value an array. ParseToken splits
"REGION:SECRET" one-time tokens against the region table.
*/
package types
