// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is Markdown text rendered for the user.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a catalog entry: guidance for one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

const (
	EngineNotAvailableId Id = iota + 1
	DockerfileNotFoundId
	ConfigLoadFailedId
	ImagePullFailedId
	ImageBuildFailedId
	ContainerProvisionFailedId
	InvalidScriptId
)

// Id returns the catalog identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue for a terminal using the given glamour style
// ("dark", "light", "auto", or a path to a style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	engineNotAvailableIssue = &Issue{
		id: EngineNotAvailableId,
		mdMsg: `
# Container engine not reachable!

launchbox talks to the engine API over its socket and could not get an answer.

## Things you can try:
- Check that the daemon is running:
~~~
$ docker info
~~~
- Point launchbox at the right socket:
~~~
$ export DOCKER_HOST=unix:///run/user/1000/docker.sock
~~~
- Or set ` + "`engine.host`" + ` in your launchbox.cue
- Make sure your user can access the socket (docker group or rootless engine)`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/daemon/troubleshoot/"},
	}

	dockerfileNotFoundIssue = &Issue{
		id: DockerfileNotFoundId,
		mdMsg: `
# Dockerfile not found!

The build program needs a Dockerfile in the build context before it contacts the engine.

## Things you can try:
- Create a Dockerfile in the current directory
- Point at another file:
~~~
$ launchbox-build --dockerfile images/app.Dockerfile
~~~
- Set ` + "`build.context_dir`" + ` and ` + "`build.dockerfile`" + ` in your launchbox.cue`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ launchbox-pull config show
~~~
- Write a fresh default file:
~~~
$ launchbox-pull config init
~~~
- Check the CUE syntax of the file reported above`,
	}

	imagePullFailedIssue = &Issue{
		id: ImagePullFailedId,
		mdMsg: `
# Failed to pull image!

The engine refused the pull request.

## Things you can try:
- Check the image reference for typos
- Images that only exist locally must be built with launchbox-build
- Log in to private registries with your engine's CLI first`,
	}

	imageBuildFailedIssue = &Issue{
		id: ImageBuildFailedId,
		mdMsg: `
# Failed to build image!

The engine reported errors while building. The build output above shows the failing step.

## Things you can try:
- Fix the failing Dockerfile instruction
- Add files the Dockerfile copies to ` + "`build.include`" + `
- Check that .dockerignore does not exclude them`,
	}

	containerProvisionFailedIssue = &Issue{
		id: ContainerProvisionFailedId,
		mdMsg: `
# Failed to provision the container!

The old container (if any) was removed, but creating, starting or attaching to the new one failed.
Nothing was rolled back; rerunning is safe.

## Things you can try:
- Check that the image exists locally:
~~~
$ docker image ls
~~~
- Check that no other container holds the name
- Run with --verbose to see each engine call`,
	}

	invalidScriptIssue = &Issue{
		id: InvalidScriptId,
		mdMsg: `
# Container script does not parse!

The script passed to the container shell has a syntax error, so the container
was never created.

## Things you can try:
- Quote the script carefully when passing --script
- Move long scripts into a file inside the image and run that file instead`,
	}

	issues = map[Id]*Issue{
		engineNotAvailableIssue.Id():       engineNotAvailableIssue,
		dockerfileNotFoundIssue.Id():       dockerfileNotFoundIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		imagePullFailedIssue.Id():          imagePullFailedIssue,
		imageBuildFailedIssue.Id():         imageBuildFailedIssue,
		containerProvisionFailedIssue.Id(): containerProvisionFailedIssue,
		invalidScriptIssue.Id():            invalidScriptIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
