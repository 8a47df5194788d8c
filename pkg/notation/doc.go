/*
Package notation implements the keeper:// query language for addressing
values inside records.

A query names a record (by UID or by exact title), a selector, and for
field selectors a parameter with optional indexes:

	keeper://hIhYeim5pm0pnVGTT-123x/field/login
	keeper://Prod DB/field/url[1]
	keeper://Prod DB/custom_field/phone[0][number]
	keeper://Prod DB/file/report.pdf

The characters / [ ] \ may be backslash-escaped inside the record token
and parameter. The legacy single-bracket form name[key], where key is
not numeric, reads as name[0][key]. An empty bracket pair returns the
whole value array as JSON.

Fields of type addressRef and cardRef hold UIDs of other records; a
query landing on one follows the reference and returns the projected
target object instead of the raw UID. A cardRef target's own addressRef
is followed one level further, and no deeper.

Parse produces the Query structure, Resolve evaluates it against a
Source, and Execute does both.
*/
package notation
