// Package idp is a typed client for the ZUSPlus identity provider.
//
// The provider owns accounts, TOTP factors and sessions. A caller signs in
// with a password to obtain an AAL1 session, then proves possession of a
// TOTP factor through a challenge/verify exchange to reach AAL2. The types
// in this package double as the provider's wire contract: the server
// handlers encode and decode exactly these structs.
//
// Basic usage:
//
//	client := idp.NewClient("http://localhost:8081")
//	sess, err := client.Login(ctx, "jan@example.pl", "password")
//	if err != nil { ... }
//
//	factors, err := sess.ListFactors(ctx)
//	if err != nil { ... }
//
//	ch, err := sess.CreateChallenge(ctx, factors[0].ID)
//	if err != nil { ... }
//
//	err = sess.Verify(ctx, factors[0].ID, ch.ID, "123456")
package idp
