// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package transport

// Reserved generic-command names. User commands must not collide with the
// sessionproxy.command namespace.
const (
	CommandGetExtendedChannel = "sessionproxy.command.GET_EXTENDED_CHANNEL"
	CommandAddQueueItem       = "sessionproxy.command.ADD_QUEUE_ITEM"
	CommandAddQueueItemAt     = "sessionproxy.command.ADD_QUEUE_ITEM_AT"
	CommandRemoveQueueItem    = "sessionproxy.command.REMOVE_QUEUE_ITEM"
	CommandRemoveQueueItemAt  = "sessionproxy.command.REMOVE_QUEUE_ITEM_AT"
)

// Bundle keys used by SendCommand envelopes and the reserved commands.
const (
	KeyCommandName        = "sessionproxy.command.NAME"
	KeyCommandParams      = "sessionproxy.command.PARAMS"
	KeyCommandDescription = "sessionproxy.command.arg.DESCRIPTION"
	KeyCommandIndex       = "sessionproxy.command.arg.INDEX"
)

// Reserved custom-action names encoding verbs that lack a dedicated wire
// method on some tiers.
const (
	ActionPrepare             = "sessionproxy.action.PREPARE"
	ActionPrepareFromMediaID  = "sessionproxy.action.PREPARE_FROM_MEDIA_ID"
	ActionPrepareFromSearch   = "sessionproxy.action.PREPARE_FROM_SEARCH"
	ActionPrepareFromURI      = "sessionproxy.action.PREPARE_FROM_URI"
	ActionPlayFromURI         = "sessionproxy.action.PLAY_FROM_URI"
	ActionSetRepeatMode       = "sessionproxy.action.SET_REPEAT_MODE"
	ActionSetShuffleMode      = "sessionproxy.action.SET_SHUFFLE_MODE"
	ActionSetCaptioning       = "sessionproxy.action.SET_CAPTIONING"
	ActionSetRatingWithExtras = "sessionproxy.action.SET_RATING"
)

// Bundle keys used by verb payloads, dedicated and action-encoded alike.
const (
	KeyValue       = "sessionproxy.transport.VALUE"
	KeyMediaID     = "sessionproxy.arg.MEDIA_ID"
	KeySearchQuery = "sessionproxy.arg.QUERY"
	KeyURI         = "sessionproxy.arg.URI"
	KeyExtras      = "sessionproxy.arg.EXTRAS"
	KeyPositionMs  = "sessionproxy.arg.POSITION_MS"
	KeyQueueItemID = "sessionproxy.arg.QUEUE_ITEM_ID"
	KeyRating      = "sessionproxy.arg.RATING"
	KeyRepeatMode  = "sessionproxy.arg.REPEAT_MODE"
	KeyShuffle     = "sessionproxy.arg.SHUFFLE_ENABLED"
	KeyCaptioning  = "sessionproxy.arg.CAPTIONING_ENABLED"
	KeyVolumeValue = "sessionproxy.arg.VOLUME_VALUE"
	KeyVolumeFlags = "sessionproxy.arg.VOLUME_FLAGS"
	KeyDirection   = "sessionproxy.arg.DIRECTION"
	KeyActionName  = "sessionproxy.arg.ACTION_NAME"
	KeyMediaButton = "sessionproxy.arg.MEDIA_BUTTON"
)
