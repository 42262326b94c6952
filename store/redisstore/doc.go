// Package redisstore implements trybeauth.IdentityStore on Redis.
//
// Each identity is a hash at <prefix>:id:<id> whose field names are the
// trybeauth.Field values. A string key <prefix>:email:<email> maps the
// normalized email to the id. Create claims the email key with SET NX inside
// a script, so two concurrent registrations for one email cannot both win.
package redisstore
