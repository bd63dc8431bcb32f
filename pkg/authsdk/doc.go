/*
Package authsdk is a Go client for the tgauth Telegram sign-in service.

# Remote handshake

A browser-less program (a CLI, a desktop app) pairs with a Telegram user
through the bot:

	client := authsdk.NewClient("https://auth.example.com")

	hs, err := client.BeginHandshake(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Open", hs.ExternalActionURL)

	creds, err := client.WaitForHandshake(ctx, hs.Token, 2*time.Second)

WaitForHandshake returns ErrSessionExpired once the pairing deadline passes.
The polling loop belongs to the client; cancel ctx to stop it early.

The bot side reports completion with CompleteHandshake, presenting the
shared callback secret when the server is configured with one.

# Direct sign-in

Mini Apps already hold signed initData and exchange it in one call:

	res, err := client.SignIn(ctx, initData)

# Errors

Every non-2xx response is returned as *APIError. The predefined values
compare with errors.Is by code:

	if errors.Is(err, authsdk.ErrSessionNotPending) {
		// someone else completed this session
	}

The same values are used by the server to write responses, so both sides
agree on codes and status.
*/
package authsdk
