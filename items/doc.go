/*

Package items moves per-attachment offload metadata into the normalized item
table used by the media offload plugin.

An attachment is a media file known to the host, identified by an integer id.
An item (a Record) says where that attachment lives in remote object storage:
the provider, region, bucket and object key, plus the local path it came from.
There is at most one item per attachment.

Older versions of the plugin kept this information as loose per-attachment
metadata. A Legacy record is that older form. When an attachment has one, it is
authoritative: it may point at a bucket, region or key prefix which differs from
the current plugin settings, and rewriting it from the current settings would
break the pointer. When there is no legacy record the item is built from the
current Settings and the attachment's relative file path.

A Migrator drives a run. It asks the ItemStore for the attachments lacking an
item, resolves each one in turn, and upserts the result. Problems with a single
attachment are recorded in the Ledger and the run goes on. An UnavailableError
from the store ends the run, since every later write would fail the same way.
Writes are not batched into one transaction, so an interrupted run leaves the
finished items in place and the next run picks up the rest.

Purge empties the item table. It should be run before, never alongside, a
migration against the same store.

*/
package items
