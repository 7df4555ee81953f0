package identity

import (
	"context"
	"fmt"
	"strings"
)

const (
	descriptorWithUniqueNameTemplateConstant = "%s <%s>"
)

// Descriptor describes the target-system identity recorded for a migrated author.
type Descriptor struct {
	DisplayName string
	UniqueName  string
	ImageURL    string
	ProfileURL  string
}

// String renders the descriptor in the "Display Name <unique-name>" form the
// target system accepts for identity fields.
func (descriptor Descriptor) String() string {
	if descriptor.UniqueName == "" || descriptor.UniqueName == descriptor.DisplayName {
		return descriptor.DisplayName
	}
	return fmt.Sprintf(descriptorWithUniqueNameTemplateConstant, descriptor.DisplayName, descriptor.UniqueName)
}

// Profile carries the source-system profile fields used to synthesize a descriptor.
type Profile struct {
	Login     string
	Name      string
	AvatarURL string
	HTMLURL   string
}

// ProfileFetcher loads a source-system user profile by handle.
type ProfileFetcher interface {
	GetUser(executionContext context.Context, handle string) (Profile, error)
}

// Resolver maps source handles to descriptors. Lookup order is the manual
// alias table, then a profile synthesized from the source system, then the
// bare handle. Resolution never fails; the first result per handle is cached
// for the lifetime of the resolver.
type Resolver struct {
	aliases        map[string]string
	profileFetcher ProfileFetcher
	cachedByHandle map[string]Descriptor
}

// NewResolver constructs a resolver owning its cache. The alias table maps
// source handles to the display string expected by the target system; a nil
// profile fetcher disables the synthesized-profile fallback.
func NewResolver(aliases map[string]string, profileFetcher ProfileFetcher) *Resolver {
	normalizedAliases := make(map[string]string, len(aliases))
	for handle, aliasValue := range aliases {
		normalizedAliases[strings.TrimSpace(handle)] = strings.TrimSpace(aliasValue)
	}

	return &Resolver{
		aliases:        normalizedAliases,
		profileFetcher: profileFetcher,
		cachedByHandle: map[string]Descriptor{},
	}
}

// Resolve returns the descriptor for the provided handle. The alias table
// always wins, the source profile lookup degrades to the handle itself on
// failure, and repeated resolutions return the cached first result without
// querying the source system again.
func (resolver *Resolver) Resolve(executionContext context.Context, handle string) Descriptor {
	trimmedHandle := strings.TrimSpace(handle)

	if cachedDescriptor, exists := resolver.cachedByHandle[trimmedHandle]; exists {
		return cachedDescriptor
	}

	resolvedDescriptor := resolver.resolveUncached(executionContext, trimmedHandle)
	resolver.cachedByHandle[trimmedHandle] = resolvedDescriptor
	return resolvedDescriptor
}

func (resolver *Resolver) resolveUncached(executionContext context.Context, trimmedHandle string) Descriptor {
	if aliasValue, exists := resolver.aliases[trimmedHandle]; exists && len(aliasValue) > 0 {
		return Descriptor{DisplayName: aliasValue, UniqueName: aliasValue}
	}

	if resolver.profileFetcher != nil {
		profile, fetchError := resolver.profileFetcher.GetUser(executionContext, trimmedHandle)
		if fetchError == nil {
			return synthesizeDescriptor(trimmedHandle, profile)
		}
	}

	return Descriptor{DisplayName: trimmedHandle, UniqueName: trimmedHandle}
}

func synthesizeDescriptor(handle string, profile Profile) Descriptor {
	displayName := profile.Name
	if len(displayName) == 0 {
		displayName = handle
	}

	uniqueName := profile.Login
	if len(uniqueName) == 0 {
		uniqueName = handle
	}

	return Descriptor{
		DisplayName: displayName,
		UniqueName:  uniqueName,
		ImageURL:    profile.AvatarURL,
		ProfileURL:  profile.HTMLURL,
	}
}
