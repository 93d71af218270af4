package stash

// sceneFields is the shared selection set for scene results.
const sceneFields = `
id
title
rating100
play_count
paths { stream preview screenshot }
performers { id name favorite }
tags { id name }
files { duration }`

const findScenesQuery = `
query FindScenes($filter: FindFilterType, $scene_filter: SceneFilterType) {
	findScenes(filter: $filter, scene_filter: $scene_filter) {
		count
		scenes {` + sceneFields + `
		}
	}
}`

const findSceneByIDQuery = `
query FindScene($id: ID!) {
	findScene(id: $id) {` + sceneFields + `
	}
}`

const findMarkersQuery = `
query FindSceneMarkers($filter: FindFilterType, $scene_marker_filter: SceneMarkerFilterType) {
	findSceneMarkers(filter: $filter, scene_marker_filter: $scene_marker_filter) {
		count
		scene_markers {
			id
			title
			seconds
			end_seconds
			primary_tag { id name }
			tags { id name }
			scene {` + sceneFields + `
			}
		}
	}
}`

const allTagsQuery = `
query AllTags {
	allTags {
		id
		name
	}
}`
