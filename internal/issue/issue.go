// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ConfigMissingValueId
	AuthFailedId
	RemoteAPIErrorId
	NetworkUnreachableId
	PageFormatChangedId
	WatcherFailedId
	NotificationFailedId
)

type (
	// MarkdownMsg is catalog text rendered through glamour.
	MarkdownMsg string

	// Issue is a catalog entry with longer remediation help.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

var render = glamour.Render

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the markdown for a terminal using the named glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(strings.TrimSpace(string(i.mdMsg)), stylePath)
}

var (
	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

chores reads ` + "`~/.config/chores/config.toml`" + ` (or ` + "`$XDG_CONFIG_HOME`" + `),
and merges the older per-tool files when they exist.

## Things you can try
- Print the resolved location:
~~~
$ chores config path
~~~
- Write a template with every section:
~~~
$ chores config init
~~~
- Check the TOML syntax around the line reported above.`,
	}

	configMissingValueIssue = &Issue{
		id: ConfigMissingValueId,
		mdMsg: `
# A required setting is empty

The command needs a value that is neither in the config file nor in the
environment.

## Things you can try
- Set it in ` + "`config.toml`" + ` under the section named in the error.
- Or export it, e.g. ` + "`CHORES_PUSHBULLET_ACCESS_TOKEN=...`" + `.`,
	}

	authFailedIssue = &Issue{
		id: AuthFailedId,
		mdMsg: `
# The remote service rejected the credentials

## Things you can try
- Log in through a browser with the same username and password.
- Re-check the credentials section of the config (` + "`chores config show`" + `).
- Tokens expire: regenerate the API token and update the config.`,
	}

	remoteAPIErrorIssue = &Issue{
		id: RemoteAPIErrorId,
		mdMsg: `
# The remote API returned an error

The request reached the service but it refused to perform the operation.
The error code above is the one reported by the service.

## Things you can try
- Run again with ` + "`--verbose`" + ` to see the full error chain.
- Verify the domain, record id or URL you passed.`,
	}

	networkUnreachableIssue = &Issue{
		id: NetworkUnreachableId,
		mdMsg: `
# The service could not be reached

## Things you can try
- Check the network link (the DNS updater runs from ppp hooks, the link may
  still be coming up).
- Verify the ` + "`base_url`" + ` of the section in the config.`,
	}

	pageFormatChangedIssue = &Issue{
		id: PageFormatChangedId,
		mdMsg: `
# The page did not look as expected

The scraper could not find the markers it relies on. The site layout has
probably changed, or the session is not logged in.

## Things you can try
- Open the page in a browser and compare it with the expected layout.
- Run with ` + "`--verbose`" + ` to log the fetched URLs.`,
	}

	watcherFailedIssue = &Issue{
		id: WatcherFailedId,
		mdMsg: `
# The file watcher stopped

## Things you can try
- Make sure the queue directory exists and is readable.
- Raise the inotify limits if the error mentions them:
~~~
$ sysctl fs.inotify.max_user_watches
~~~`,
	}

	notificationFailedIssue = &Issue{
		id: NotificationFailedId,
		mdMsg: `
# The notification was not delivered

The main operation succeeded, only the notification failed.

## Things you can try
- Check ` + "`pushbullet.access_token`" + `.
- For the DNS updater, configure the ` + "`[mail]`" + ` section so the email
  fallback can be used.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		configMissingValueIssue.Id(): configMissingValueIssue,
		authFailedIssue.Id():         authFailedIssue,
		remoteAPIErrorIssue.Id():     remoteAPIErrorIssue,
		networkUnreachableIssue.Id(): networkUnreachableIssue,
		pageFormatChangedIssue.Id():  pageFormatChangedIssue,
		watcherFailedIssue.Id():      watcherFailedIssue,
		notificationFailedIssue.Id(): notificationFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
