// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

/*
Package prompts provides user interaction primitives following UNIX conventions.

# Mode Detection

Non-interactive mode is enabled when ANY of these is true:

  - DOTCLI_NON_INTERACTIVE=1/true/yes/on environment variable
  - CI=1/true environment variable
  - stdin is not a TTY (piped/redirected/scripted)

In non-interactive mode every Capture method fails with ErrNonInteractive.

# Option Precedence

 1. Flags (--to=5F...)
 2. Environment variables (DOTCLI_ACCOUNT=alice)
 3. Config file (~/.dotcli/cli.json)
 4. Defaults
 5. Prompts (only if interactive/TTY)

# Usage Pattern: Validator

	v := prompts.NewValidator("dotcli transfer")
	v.Require(&to, prompts.MissingOpt{Flag: "--to", Prompt: "Destination address"})
	if err := v.Resolve(func(m prompts.MissingOpt) (string, error) {
	    return app.Prompt.CaptureAddress(m.Prompt)
	}); err != nil {
	    return err
	}

When prompting is impossible the error lists every missing flag:

	missing required options:
	  --to
	  --amount

	run 'dotcli transfer --help' to see all options
*/
package prompts
