package main

// User-facing messages for the pgmirror command.
const (
	MsgRootShort = "Bootstrap database-side sync resources"

	MsgRootLong = `pgmirror provisions the database-side resources a sync document needs:
the notify trigger function, per-table triggers and the logical
replication slot. With --teardown it removes them again.

Each document in the schema config is processed independently, in order.`

	MsgFlagConfig   = "Schema config path"
	MsgFlagHost     = "PG_HOST override"
	MsgFlagPassword = "Prompt for database password"
	MsgFlagPort     = "PG_PORT override"
	MsgFlagTeardown = "Tear down sync resources instead of provisioning them"
	MsgFlagUser     = "PG_USER override"
	MsgFlagVerbose  = "Turn on verbosity"
	MsgFlagForce    = "Drop and re-create the replication slot during setup"
	MsgFlagHelp     = "Help for pgmirror"
)
