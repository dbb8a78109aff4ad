/*
Package authsdk is a small client for the bearer authentication service, and
the home of the error values the service writes to the wire.

Log in with a username and password to obtain a Session, then call the
protected endpoints with it:

	client := authsdk.NewClient("http://localhost:8080")

	session, err := client.Login(ctx, "johndoe", "secret")
	if errors.Is(err, authsdk.ErrIncorrectCredentials) {
		// wrong username or password, the service never says which
	}

	me, err := session.Me(ctx)
	items, err := session.Items(ctx)

Sessions hold a single access token. There is no refresh: once the token
expires every call fails with ErrInvalidCredentials and the caller must log
in again.
*/
package authsdk
