// Package respserver exposes a microlog runtime over the Redis
// serialization protocol using tidwall/redcon.
//
// Commands:
//
//	PING [message]
//	LOG.APPEND message [LEVEL level] [NAME name] [TS millis]
//	LOG.READ [STORE name] [ORDER asc|desc] [FILTER expr] [LIMIT n]
//	LOG.COUNT [store]
//	LOG.SIZE
//	LOG.CLEAR [store]
//	LOG.STORES
//	QUIT
//
// LOG.READ replies with an array of record texts in the requested order.
package respserver
