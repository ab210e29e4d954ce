// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package web embeds the static admin shell served under /admin.
package web

import "embed"

// AdminFS holds admin/index.html (the gated dashboard shell) and
// admin/login.html (the public login form).
//
//go:embed admin/*.html
var AdminFS embed.FS
