// Package token verifies the signed credentials presented at the socket
// handshake and on the reconciliation API.
//
// Credentials are HS256 JWTs issued by the platform's auth service. Beyond the
// registered claims they may carry an application-surface claim ("appType")
// and a permission list ("permissions"). The surface claim, when present, is
// checked against the surface a connection declares at handshake time; a
// mismatch means a credential issued for one surface is being replayed against
// the other and the connection is rejected.
package token
